package sourcemap

// NoIndex marks an absent optional field of a Mapping. A mapping without an
// original location has SourceIndex == NoIndex, a mapping without an
// identifier name has NameIndex == NoIndex.
const NoIndex = -1

// Mapping is a single entry of a mapping table. It associates a position in
// the generated text with, optionally, a position in one of the original
// sources and an identifier name.
//
// Lines are 1-based and columns are 0-based, matching the convention the
// "mappings" wire encoding uses for deltas. SourceIndex and NameIndex refer
// into the sources and names tables of the map the entry belongs to.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	SourceIndex     int
	OriginalLine    int
	OriginalColumn  int
	NameIndex       int
}

// HasOriginal reports whether the mapping carries an original position.
func (m Mapping) HasOriginal() bool {
	return m.SourceIndex != NoIndex
}

// HasName reports whether the mapping carries an identifier name. A name is
// only meaningful on mappings that also carry an original position.
func (m Mapping) HasName() bool {
	return m.SourceIndex != NoIndex && m.NameIndex != NoIndex
}

// GeneratedOnly constructs a mapping that carries only a generated position.
func GeneratedOnly(line, column int) Mapping {
	return Mapping{
		GeneratedLine:   line,
		GeneratedColumn: column,
		SourceIndex:     NoIndex,
		NameIndex:       NoIndex,
	}
}

// Before reports whether m's generated position precedes o's.
func (m Mapping) Before(o Mapping) bool {
	if m.GeneratedLine != o.GeneratedLine {
		return m.GeneratedLine < o.GeneratedLine
	}
	return m.GeneratedColumn < o.GeneratedColumn
}
