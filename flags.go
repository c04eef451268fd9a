package concretize

// reorderFlags finalizes each node's per-category flag ordering by the
// dedup-to-end rule: when a flag token reappears later in a category's
// list, its earlier occurrence is dropped so the later one (higher
// compile-line precedence) is what survives, at the position of its last
// occurrence. The lists it works on are the node's node_flag atoms in the
// order the builder received them: the chosen compiler entry's flags for
// a node that elected compiler defaults, the node's own input-spec flags
// otherwise. It does not read FlagSources, does not bring in flags from
// ancestor nodes, and does not compare the result with the compiler's
// flag map.
func reorderFlags(s *Spec) {
	for cat, flags := range s.Flags {
		s.Flags[cat] = dedupKeepLast(flags)
	}
}

// dedupKeepLast returns flags with duplicates removed, each surviving
// occurrence placed at the position of its *last* appearance in the
// input: when a flag reappears, it moves to the end.
func dedupKeepLast(flags []string) []string {
	lastIndex := make(map[string]int, len(flags))
	for i, f := range flags {
		lastIndex[f] = i
	}
	out := make([]string, 0, len(lastIndex))
	seen := make(map[string]bool, len(lastIndex))
	for i, f := range flags {
		if lastIndex[f] != i {
			continue // not this token's last occurrence
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
