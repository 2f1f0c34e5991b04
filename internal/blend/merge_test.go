package blend

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func seq(from, to int) []string {
	values := make([]string, 0, to-from+1)
	for i := from; i <= to; i++ {
		values = append(values, fmt.Sprint(i))
	}
	return values
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		forked   []string
		external []string
		want     []string
	}{
		{
			name:     "forked values lead and are removed from external",
			forked:   []string{"9", "10"},
			external: seq(1, 11),
			want:     []string{"9", "10", "1", "2", "3", "4", "5", "6", "7", "8"},
		},
		{
			name:     "empty forked returns external truncated",
			forked:   nil,
			external: seq(1, 20),
			want:     seq(1, 10),
		},
		{
			name:     "only the first five forked values count",
			forked:   []string{"a", "b", "c", "d", "e", "f", "g"},
			external: []string{"f", "x", "y"},
			want:     []string{"a", "b", "c", "d", "e", "f", "x", "y"},
		},
		{
			name:     "short external yields a short list",
			forked:   []string{"1"},
			external: []string{"1", "2", "3"},
			want:     []string{"1", "2", "3"},
		},
		{
			name:     "duplicates inside external are kept",
			forked:   []string{"1"},
			external: []string{"2", "2", "1", "3"},
			want:     []string{"1", "2", "2", "3"},
		},
		{
			name:     "duplicates inside forked are kept",
			forked:   []string{"1", "1"},
			external: []string{"1", "2"},
			want:     []string{"1", "1", "2"},
		},
		{
			name:     "external entirely covered by forked",
			forked:   []string{"1", "2"},
			external: []string{"2", "1"},
			want:     []string{"1", "2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.forked, tt.external, DefaultForkedLimit, DefaultResultLimit)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Merge mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMerge_CountProperty(t *testing.T) {
	// For lists without internal duplicates the length is min(10, |dedup(forked[:5] + external)|)
	cases := []struct {
		forked   []string
		external []string
	}{
		{forked: seq(1, 5), external: seq(3, 30)},
		{forked: seq(100, 107), external: seq(1, 3)},
		{forked: nil, external: seq(1, 4)},
		{forked: seq(1, 2), external: seq(1, 2)},
	}

	for _, c := range cases {
		head := c.forked
		if len(head) > DefaultForkedLimit {
			head = head[:DefaultForkedLimit]
		}
		unique := map[string]struct{}{}
		for _, v := range append(append([]string{}, head...), c.external...) {
			unique[v] = struct{}{}
		}

		got := Merge(c.forked, c.external, DefaultForkedLimit, DefaultResultLimit)
		assert.Len(t, got, min(DefaultResultLimit, len(unique)))
		if len(head) > 0 {
			assert.Equal(t, head, got[:len(head)], "forked values must lead in their original order")
		}
	}
}

func TestMerge_CustomLimits(t *testing.T) {
	got := Merge([]string{"a", "b", "c"}, []string{"x", "y", "z"}, 2, 3)
	assert.Equal(t, []string{"a", "b", "x"}, got)

	got = Merge([]string{"a", "b"}, []string{"x"}, 5, 1)
	assert.Equal(t, []string{"a"}, got)

	assert.Empty(t, Merge([]string{"a"}, []string{"x"}, 5, 0))
}
