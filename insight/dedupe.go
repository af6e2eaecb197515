package insight

// Dedupe drops later insights whose content hash matches an earlier one.
// Input order is preserved and the first occurrence of each hash wins.
// Scope is strictly the slice given: there is no cross-run deduplication.
func Dedupe(insights []Refined) []Refined {
	seen := make(map[string]struct{}, len(insights))
	unique := make([]Refined, 0, len(insights))

	for _, ins := range insights {
		hash := ContentHash(ins.Title, ins.Description)
		if _, ok := seen[hash]; ok {
			continue
		}
		seen[hash] = struct{}{}
		unique = append(unique, ins)
	}

	return unique
}
