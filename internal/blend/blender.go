// Package blend merges a forked recommendation list into an external one,
// line by line.
package blend

import (
	"bufio"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/model"
)

const (
	// DefaultForkedLimit is how many forked values are considered per line
	DefaultForkedLimit = 5
	// DefaultResultLimit caps the number of values in a merged line
	DefaultResultLimit = 10
)

// Source names used in parse errors
const (
	SourceExternal = "external"
	SourceForked   = "forked"
)

// Options configures a Blender.
type Options struct {
	ForkedLimit int
	ResultLimit int

	// ExternalName and ForkedName label parse errors, usually with file paths.
	ExternalName string
	ForkedName   string
}

// DefaultOptions returns the default limits (5 forked, 10 total).
func DefaultOptions() Options {
	return Options{
		ForkedLimit:  DefaultForkedLimit,
		ResultLimit:  DefaultResultLimit,
		ExternalName: SourceExternal,
		ForkedName:   SourceForked,
	}
}

// Blender merges external and forked lines that correspond by position.
type Blender struct {
	opts   Options
	logger *zap.Logger
}

// NewBlender creates a Blender. A nil logger disables logging.
func NewBlender(opts Options, logger *zap.Logger) *Blender {
	if opts.ExternalName == "" {
		opts.ExternalName = SourceExternal
	}
	if opts.ForkedName == "" {
		opts.ForkedName = SourceForked
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Blender{opts: opts, logger: logger}
}

// blendLine merges line index of external with the forked line at the same
// index. A forked slice shorter than external yields an empty forked list for
// the missing lines. Keys are not compared; the external key wins.
func (b *Blender) blendLine(index int, external, forked []string) (model.MergedLine, lineInfo, error) {
	var info lineInfo

	ext, err := ParseLine(b.opts.ExternalName, index+1, external[index])
	if err != nil {
		return model.MergedLine{}, info, err
	}

	var forkedValues []string
	if index < len(forked) {
		fk, err := ParseLine(b.opts.ForkedName, index+1, forked[index])
		if err != nil {
			return model.MergedLine{}, info, err
		}
		forkedValues = fk.Values
		if fk.Key != ext.Key {
			info.keyMismatch = true
			b.logger.Debug("external and forked keys differ",
				zap.Int("line", index+1),
				zap.String("external_key", ext.Key),
				zap.String("forked_key", fk.Key))
		}
	} else {
		info.missingForked = true
	}

	values := Merge(forkedValues, ext.Values, b.opts.ForkedLimit, b.opts.ResultLimit)
	info.forkedSelected = min(len(forkedValues), len(values))
	if b.opts.ForkedLimit >= 0 {
		info.forkedSelected = min(info.forkedSelected, b.opts.ForkedLimit)
	}

	return model.MergedLine{Key: ext.Key, Values: values}, info, nil
}

type lineInfo struct {
	missingForked  bool
	keyMismatch    bool
	forkedSelected int
}

func (s *lineInfo) addTo(stats *model.BlendStats) {
	stats.LinesWritten++
	stats.ForkedSelected += s.forkedSelected
	if s.missingForked {
		stats.MissingForked++
	}
	if s.keyMismatch {
		stats.KeyMismatches++
	}
}

// Blend merges every external line with its forked counterpart and returns the
// merged lines in external order. The first malformed line aborts the run.
func (b *Blender) Blend(external, forked []string) ([]model.MergedLine, model.BlendStats, error) {
	var stats model.BlendStats
	merged := make([]model.MergedLine, 0, len(external))

	for i := range external {
		line, info, err := b.blendLine(i, external, forked)
		if err != nil {
			return nil, stats, err
		}
		info.addTo(&stats)
		merged = append(merged, line)
	}
	return merged, stats, nil
}

// BlendTo writes each merged line to w as soon as it is computed. On a parse
// failure the lines already written are left in place and the error is
// returned together with the stats gathered so far.
func (b *Blender) BlendTo(w io.Writer, external, forked []string) (model.BlendStats, error) {
	var stats model.BlendStats
	bw := bufio.NewWriter(w)

	for i := range external {
		line, info, err := b.blendLine(i, external, forked)
		if err != nil {
			if flushErr := bw.Flush(); flushErr != nil {
				b.logger.Warn("failed to flush partial output", zap.Error(flushErr))
			}
			return stats, err
		}
		if _, err := bw.WriteString(FormatLine(line) + "\n"); err != nil {
			return stats, fmt.Errorf("failed to write line %d: %w", i+1, err)
		}
		info.addTo(&stats)
	}

	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("failed to flush output: %w", err)
	}

	b.logger.Debug("blend finished",
		zap.Int("lines", stats.LinesWritten),
		zap.Int("missing_forked", stats.MissingForked),
		zap.Int("key_mismatches", stats.KeyMismatches))
	return stats, nil
}
