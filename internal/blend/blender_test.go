package blend

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	blenderrors "github.com/gcbaptista/go-recommendation-blender/internal/errors"
	"github.com/gcbaptista/go-recommendation-blender/model"
)

func newTestBlender(t *testing.T) *Blender {
	return NewBlender(DefaultOptions(), zaptest.NewLogger(t))
}

func TestBlender_Blend(t *testing.T) {
	b := newTestBlender(t)

	external := []string{
		"a:1,2,3,4,5,6,7,8,9,10,11",
		"b:20,21,22",
	}
	forked := []string{
		"a:9,10",
		"b:22,99",
	}

	got, stats, err := b.Blend(external, forked)
	require.NoError(t, err)

	want := []model.MergedLine{
		{Key: "a", Values: []string{"9", "10", "1", "2", "3", "4", "5", "6", "7", "8"}},
		{Key: "b", Values: []string{"22", "99", "20", "21"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Blend mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 2, stats.LinesWritten)
	assert.Equal(t, 0, stats.MissingForked)
	assert.Equal(t, 4, stats.ForkedSelected)
}

func TestBlender_ForkedShorterThanExternal(t *testing.T) {
	b := newTestBlender(t)

	external := []string{
		"a:1,2",
		"b:3,4",
		"c:1,2,3,4,5,6,7,8,9,10,11,12",
	}
	forked := []string{
		"a:2",
		"b:9",
	}

	got, stats, err := b.Blend(external, forked)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "c", got[2].Key)
	assert.Equal(t, seq(1, 10), got[2].Values)
	assert.Equal(t, 1, stats.MissingForked)
}

func TestBlender_KeyMismatchIsNotEnforced(t *testing.T) {
	b := newTestBlender(t)

	got, stats, err := b.Blend([]string{"a:1,2"}, []string{"zzz:7"})
	require.NoError(t, err)

	// The external key wins and the forked values are still used positionally
	assert.Equal(t, "a:7,1,2", FormatLine(got[0]))
	assert.Equal(t, 1, stats.KeyMismatches)
}

func TestBlender_MalformedLineIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		external []string
		forked   []string
		source   string
		line     int
	}{
		{
			name:     "external missing colon",
			external: []string{"a:1", "b 2"},
			forked:   []string{"a:1", "b:2"},
			source:   SourceExternal,
			line:     2,
		},
		{
			name:     "forked empty values",
			external: []string{"a:1"},
			forked:   []string{"a:"},
			source:   SourceForked,
			line:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBlender(t)
			got, _, err := b.Blend(tt.external, tt.forked)
			require.Error(t, err)
			assert.Nil(t, got)

			var parseErr *blenderrors.ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tt.source, parseErr.Source)
			assert.Equal(t, tt.line, parseErr.Line)
		})
	}
}

func TestBlender_BlendTo(t *testing.T) {
	b := newTestBlender(t)

	external := []string{"a:1,2,3,4,5,6,7,8,9,10,11", "b:1,2"}
	forked := []string{"a:9,10"}

	var out bytes.Buffer
	stats, err := b.BlendTo(&out, external, forked)
	require.NoError(t, err)

	assert.Equal(t, "a:9,10,1,2,3,4,5,6,7,8\nb:1,2\n", out.String())
	assert.Equal(t, 2, stats.LinesWritten)
	assert.Equal(t, 1, stats.MissingForked)
}

func TestBlender_BlendToKeepsPartialOutput(t *testing.T) {
	b := newTestBlender(t)

	external := []string{"a:1", "b:2", "broken", "d:4"}

	var out bytes.Buffer
	stats, err := b.BlendTo(&out, external, nil)
	require.ErrorIs(t, err, blenderrors.ErrParse)

	assert.Equal(t, "a:1\nb:2\n", out.String())
	assert.Equal(t, 2, stats.LinesWritten)
}

func TestBlender_Idempotent(t *testing.T) {
	b := newTestBlender(t)

	external := []string{"u1:5,4,3,2,1", "u2:8,7,6", "u3:1,2,3,4,5,6,7,8,9,10,11,12,13"}
	forked := []string{"u1:1,9", "u2:6,6,6,6,6,6"}

	var first, second bytes.Buffer
	_, err := b.BlendTo(&first, external, forked)
	require.NoError(t, err)
	_, err = b.BlendTo(&second, external, forked)
	require.NoError(t, err)

	assert.Equal(t, first.Bytes(), second.Bytes())
	assert.Equal(t, 3, strings.Count(first.String(), "\n"))
}

func TestBlender_CustomOptions(t *testing.T) {
	b := NewBlender(Options{ForkedLimit: 1, ResultLimit: 3}, nil)

	got, _, err := b.Blend([]string{"k:a,b,c,d"}, []string{"k:d,c"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "b"}, got[0].Values)

	// Unnamed sources fall back to the default labels in parse errors
	_, _, err = b.Blend([]string{"k:a"}, []string{"broken"})
	var parseErr *blenderrors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, SourceForked, parseErr.Source)
}
