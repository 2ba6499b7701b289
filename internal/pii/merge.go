package pii

// Merge concatenates detector outputs in order and deduplicates by
// (type, lowercased value). On duplicate keys the last write wins, but the
// item keeps the position of its first occurrence. No cross-type merging
// happens: "location" and a hypothetical "address" covering the same span
// both survive; overlap is resolved at redaction time, not here.
func Merge(batches ...[]Item) Result {
	index := make(map[string]int)
	var items []Item

	for _, batch := range batches {
		for _, item := range batch {
			if !item.Type.Valid() || item.Value == "" {
				continue
			}
			key := item.Key()
			if pos, ok := index[key]; ok {
				items[pos] = item
				continue
			}
			index[key] = len(items)
			items = append(items, item)
		}
	}

	return Result{Items: items}
}
