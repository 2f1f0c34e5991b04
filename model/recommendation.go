package model

// SourceLine is one parsed "key:v1,v2,...,vN" line from an input file.
// Values are ordered by rank.
type SourceLine struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// MergedLine is the blended output for a single key.
type MergedLine struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

// BlendStats summarises a single blend run
type BlendStats struct {
	LinesWritten   int `json:"lines_written"`
	MissingForked  int `json:"missing_forked"`  // External lines with no forked line at the same index
	KeyMismatches  int `json:"key_mismatches"`  // Lines whose external and forked keys differ (not enforced)
	ForkedSelected int `json:"forked_selected"` // Forked values that made it into the output
}
