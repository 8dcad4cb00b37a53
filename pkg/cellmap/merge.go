package cellmap

// MergeMappings overlays override onto base. Entries with the same key are
// replaced, except when both sides are groups, which merge recursively. New
// keys are appended in override order.
func MergeMappings(base, override Mapping) Mapping {
	merged := Mapping{
		Entries: mergeEntries(base.Entries, override.Entries),
	}
	merged.Skipped = append(append([]string(nil), base.Skipped...), override.Skipped...)
	if len(merged.Skipped) == 0 {
		merged.Skipped = nil
	}
	return merged
}

func mergeEntries(base, override []Entry) []Entry {
	out := make([]Entry, len(base), len(base)+len(override))
	copy(out, base)

	index := make(map[string]int, len(out))
	for i, entry := range out {
		index[entry.Key] = i
	}

	for _, entry := range override {
		pos, exists := index[entry.Key]
		if !exists {
			index[entry.Key] = len(out)
			out = append(out, entry)
			continue
		}

		baseGroup, baseIsGroup := out[pos].Value.(Group)
		overGroup, overIsGroup := entry.Value.(Group)
		if baseIsGroup && overIsGroup {
			out[pos] = Entry{Key: entry.Key, Value: Group{Entries: mergeEntries(baseGroup.Entries, overGroup.Entries)}}
			continue
		}
		out[pos] = entry
	}
	return out
}
