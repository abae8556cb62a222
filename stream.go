package sources

import (
	"fmt"
	"sort"

	"github.com/gopherjs/sources/internal/mapcache"
	"github.com/gopherjs/sources/sourcemap"
)

// streamRawText emits text as unmapped line chunks.
func streamRawText(text string, onChunk onChunkFunc) (generatedInfo, error) {
	line := 1
	for _, l := range splitLines(text) {
		if err := onChunk(l, sourcemap.GeneratedOnly(line, 0)); err != nil {
			return generatedInfo{}, err
		}
		line++
	}
	return generatedInfoFor(text), nil
}

// emitMappedText walks text together with its ordered mapping table, calling
// onChunk once per mapping plus once per unmapped gap. Mapping positions are
// clamped into the text and entries that point beyond its end are dropped.
//
// With opts.Columns unset, every generated line collapses into a single
// chunk carrying the line's first mapping that has an original location,
// moved to column 0 and stripped of its name.
func emitMappedText(text string, mappings []sourcemap.Mapping, opts MapOptions, onChunk onChunkFunc) (generatedInfo, error) {
	if !sort.SliceIsSorted(mappings, func(i, j int) bool { return mappings[i].Before(mappings[j]) }) {
		sorted := make([]sourcemap.Mapping, len(mappings))
		copy(sorted, mappings)
		sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })
		mappings = sorted
	}

	lines := splitLines(text)
	mi := 0
	for mi < len(mappings) && mappings[mi].GeneratedLine < 1 {
		mi++
	}

	if !opts.Columns {
		for li := 1; li <= len(lines); li++ {
			m := sourcemap.GeneratedOnly(li, 0)
			for ; mi < len(mappings) && mappings[mi].GeneratedLine == li; mi++ {
				if c := mappings[mi]; c.HasOriginal() && !m.HasOriginal() {
					m = c
					m.GeneratedLine, m.GeneratedColumn = li, 0
					m.NameIndex = sourcemap.NoIndex
				}
			}
			if err := onChunk(lines[li-1], m); err != nil {
				return generatedInfo{}, err
			}
		}
		return generatedInfoFor(text), nil
	}

	for li := 1; li <= len(lines); li++ {
		line := lines[li-1]
		content := len(line) // column bound, including a trailing newline
		if content > 0 && line[content-1] == '\n' {
			content--
		}
		col := 0
		for mi < len(mappings) && mappings[mi].GeneratedLine == li {
			m := mappings[mi]
			mi++
			c := m.GeneratedColumn
			if c > content {
				c = content
			}
			if c < col {
				c = col
			}
			if c > col {
				if err := onChunk(line[col:c], sourcemap.GeneratedOnly(li, col)); err != nil {
					return generatedInfo{}, err
				}
			}
			end := len(line)
			if mi < len(mappings) && mappings[mi].GeneratedLine == li {
				if next := mappings[mi].GeneratedColumn; next >= c && next <= content {
					end = next
				}
			}
			m.GeneratedLine, m.GeneratedColumn = li, c
			if err := onChunk(line[c:end], m); err != nil {
				return generatedInfo{}, err
			}
			col = end
		}
		if col < len(line) {
			if err := onChunk(line[col:], sourcemap.GeneratedOnly(li, col)); err != nil {
				return generatedInfo{}, err
			}
		}
	}
	return generatedInfoFor(text), nil
}

// tableEmitter resolves mapping indices against a map's string tables and
// announces each source and name the first time a chunk references it. The
// emitted index space is the map's own.
type tableEmitter struct {
	m           *sourcemap.Map
	onSource    onSourceFunc
	onName      onNameFunc
	sourcesSeen []bool
	namesSeen   []bool
}

func newTableEmitter(m *sourcemap.Map, onSource onSourceFunc, onName onNameFunc) *tableEmitter {
	return &tableEmitter{
		m:           m,
		onSource:    onSource,
		onName:      onName,
		sourcesSeen: make([]bool, len(m.Sources)),
		namesSeen:   make([]bool, len(m.Names)),
	}
}

// announce emits source and name callbacks for everything m references.
func (e *tableEmitter) announce(m sourcemap.Mapping) error {
	if !m.HasOriginal() {
		return nil
	}
	if m.SourceIndex >= len(e.m.Sources) {
		return fmt.Errorf("%w: source index %d out of range (%d sources)",
			sourcemap.ErrMalformedMappings, m.SourceIndex, len(e.m.Sources))
	}
	if !e.sourcesSeen[m.SourceIndex] {
		e.sourcesSeen[m.SourceIndex] = true
		content, _ := e.m.SourceContent(m.SourceIndex)
		if err := e.onSource(m.SourceIndex, e.m.Sources[m.SourceIndex], content); err != nil {
			return err
		}
	}
	if m.NameIndex == sourcemap.NoIndex {
		return nil
	}
	if m.NameIndex >= len(e.m.Names) {
		return fmt.Errorf("%w: name index %d out of range (%d names)",
			sourcemap.ErrMalformedMappings, m.NameIndex, len(e.m.Names))
	}
	if !e.namesSeen[m.NameIndex] {
		e.namesSeen[m.NameIndex] = true
		if err := e.onName(m.NameIndex, e.m.Names[m.NameIndex]); err != nil {
			return err
		}
	}
	return nil
}

// streamTextWithMap emits text using an attached source map, announcing
// sources and names lazily in the map's own index space.
func streamTextWithMap(text string, m *sourcemap.Map, opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	decoded, err := mapcache.Decode(m.Mappings)
	if err != nil {
		return generatedInfo{}, err
	}
	emitter := newTableEmitter(m, onSource, onName)
	return emitMappedText(text, decoded, opts, func(chunk string, mp sourcemap.Mapping) error {
		if err := emitter.announce(mp); err != nil {
			return err
		}
		return onChunk(chunk, mp)
	})
}

// lookupMapping returns the last mapping on the given generated line at or
// before the given column, which is the entry covering that position.
func lookupMapping(mappings []sourcemap.Mapping, line, column int) (sourcemap.Mapping, bool) {
	target := sourcemap.GeneratedOnly(line, column)
	// First entry strictly after the target position.
	i := sort.Search(len(mappings), func(i int) bool { return target.Before(mappings[i]) })
	if i == 0 {
		return sourcemap.Mapping{}, false
	}
	m := mappings[i-1]
	if m.GeneratedLine != line {
		return sourcemap.Mapping{}, false
	}
	return m, true
}
