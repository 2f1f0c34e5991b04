package engine

import (
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-recommendation-blender/internal/blend"
	"github.com/gcbaptista/go-recommendation-blender/internal/source"
)

const (
	resultsFile = "results.gob"
	exportFile  = "results.txt"
)

func (e *Engine) snapshotPath() string {
	return filepath.Join(e.dataDir, resultsFile)
}

// loadSnapshot restores the result store from disk. A missing or corrupt
// snapshot leaves the store empty.
func (e *Engine) loadSnapshot() {
	if e.dataDir == "" {
		return
	}

	path := e.snapshotPath()
	if err := source.LoadGob(path, e.results); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			e.logger.Info("no blend snapshot found, starting empty", zap.String("path", path))
			return
		}
		e.logger.Warn("failed to load blend snapshot, starting empty", zap.String("path", path), zap.Error(err))
		return
	}

	e.logger.Info("restored blend snapshot",
		zap.String("path", path),
		zap.Int("keys", e.results.Len()),
		zap.Uint64("version", e.results.Version()))
}

// saveSnapshot persists the result store, plus a plain-text export in the
// same key:v1,v2 format the CLI prints.
func (e *Engine) saveSnapshot() error {
	if e.dataDir == "" {
		return nil
	}

	if err := source.SaveGob(e.snapshotPath(), e.results); err != nil {
		return err
	}

	return source.WriteLines(filepath.Join(e.dataDir, exportFile), e.exportLines())
}

func (e *Engine) exportLines() []string {
	merged := e.results.Lines()
	lines := make([]string, 0, len(merged))
	for _, m := range merged {
		lines = append(lines, blend.FormatLine(m))
	}
	return lines
}
