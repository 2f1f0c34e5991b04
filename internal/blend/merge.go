package blend

// Merge puts the first forkedLimit forked values in front, then fills with the
// external values that are not among them, and truncates to resultLimit.
//
// Only the selected forked values form the exclusion set: duplicates inside
// external are kept, and so are duplicates inside forked.
func Merge(forked, external []string, forkedLimit, resultLimit int) []string {
	if resultLimit <= 0 {
		return []string{}
	}
	if forkedLimit >= 0 && len(forked) > forkedLimit {
		forked = forked[:forkedLimit]
	}

	exclude := make(map[string]struct{}, len(forked))
	for _, v := range forked {
		exclude[v] = struct{}{}
	}

	merged := make([]string, 0, resultLimit)
	for _, v := range forked {
		if len(merged) == resultLimit {
			return merged
		}
		merged = append(merged, v)
	}
	for _, v := range external {
		if len(merged) == resultLimit {
			break
		}
		if _, skip := exclude[v]; skip {
			continue
		}
		merged = append(merged, v)
	}
	return merged
}
