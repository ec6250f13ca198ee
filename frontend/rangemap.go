package frontend

import "sort"

type rangeEntry struct {
	begin, end int
	locator    SourceLocator
}

// RangeMap is a disjoint range map: given any interior
// sub-range of a registered file, it answers which SourceLocator produced
// it — the original file, or a FixedLocator installed by the elaborator
// for a synthesized value. Entries are segregated per file id, since byte
// offsets from different files are never comparable.
type RangeMap struct {
	byFile map[int][]rangeEntry // each slice sorted ascending by end, disjoint
}

// NewRangeMap returns an empty RangeMap.
func NewRangeMap() *RangeMap {
	return &RangeMap{byFile: map[int][]rangeEntry{}}
}

// Register records that [begin,end) within fileID is owned by locator.
// Re-registering the identical range is a no-op.
func (m *RangeMap) Register(fileID, begin, end int, locator SourceLocator) {
	entries := m.byFile[fileID]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].end >= end })
	if i < len(entries) && entries[i].end == end && entries[i].begin == begin {
		return
	}
	entries = append(entries, rangeEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = rangeEntry{begin: begin, end: end, locator: locator}
	m.byFile[fileID] = entries
}

// Lookup finds the SourceLocator registered for sub-range [begin,end)
// within fileID: the entry with the least end >= end whose begin <= begin.
func (m *RangeMap) Lookup(fileID, begin, end int) (SourceLocator, bool) {
	entries := m.byFile[fileID]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].end >= end })
	if i < len(entries) && entries[i].begin <= begin {
		return entries[i].locator, true
	}
	return nil, false
}
