package model

// DedupByHost removes candidates that share a host.
// The result keeps the position of each host's first occurrence but
// takes the value of its last occurrence, so a later source overrides
// an earlier one for the same host.
func DedupByHost(candidates []Candidate) []Candidate {
	index := make(map[string]int, len(candidates))
	result := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		if i, ok := index[c.Host]; ok {
			result[i] = c
			continue
		}
		index[c.Host] = len(result)
		result = append(result, c)
	}

	return result
}
