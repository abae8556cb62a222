package sources

import (
	"io"
	"sort"
	"strings"

	"github.com/gopherjs/sources/sourcemap"
)

// MapOptions controls how a mapping table is derived from a source tree.
type MapOptions struct {
	// Columns requests per-column mapping granularity. When false, the
	// engine collapses all entries on a generated line into a single
	// line-start marker, trading precision for a smaller encoded table.
	Columns bool
}

// Source is a node of the composition tree. Implementations are immutable
// after construction and safe for concurrent use; the set of implementations
// is closed by the unexported streamChunks method.
type Source interface {
	// Text returns the generated text of the node.
	Text() string
	// Size returns the byte length of Text.
	Size() int
	// Map returns the merged mapping table for the node's text, or nil if
	// the node maps to no original sources.
	Map(opts MapOptions) (*sourcemap.Map, error)
	// TextAndMap computes both Text and Map in a single traversal.
	TextAndMap(opts MapOptions) (string, *sourcemap.Map, error)
	// WriteTo streams the text to w without materializing a mapping table.
	WriteTo(w io.Writer) (int64, error)

	// streamChunks drives the composition engine: it emits the node's text
	// as ordered chunks with their mappings in the node's own generated
	// coordinate space, announcing referenced sources and names through the
	// respective callbacks before the first chunk that uses them.
	streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error)
}

// onChunkFunc receives a piece of generated text together with the mapping
// at its start position. Chunks arrive in generated order, never contain an
// interior newline, and concatenate to the node's full text. Chunks of
// unmapped text carry a mapping without an original location.
type onChunkFunc func(chunk string, m sourcemap.Mapping) error

// onSourceFunc announces an original source in the emitter's own index
// space, with its content when known (empty otherwise).
type onSourceFunc func(sourceIndex int, source, content string) error

// onNameFunc announces an identifier name in the emitter's own index space.
type onNameFunc func(nameIndex int, name string) error

// generatedInfo is the generated cursor position after a node's last chunk:
// the 1-based line the cursor is on and the 0-based column within it.
type generatedInfo struct {
	line   int
	column int
}

// generatedInfoFor computes the cursor position after writing text.
func generatedInfoFor(text string) generatedInfo {
	lines := strings.Count(text, "\n")
	last := strings.LastIndexByte(text, '\n')
	return generatedInfo{line: lines + 1, column: len(text) - last - 1}
}

// splitLines splits text after every newline, keeping the terminator. The
// final element has no trailing newline unless the text ends with one, in
// which case no empty trailing element is produced.
func splitLines(text string) []string {
	var lines []string
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i == -1 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// lineStarts returns the byte offset of the beginning of each line.
func lineStarts(text string) []int {
	starts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// positionAt converts a byte offset into a 1-based line and 0-based column,
// given the line start offsets of the text.
func positionAt(offset int, starts []int) (line, column int) {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > offset }) - 1
	return i + 1, offset - starts[i]
}

// mapBuilder collects the output of a streamChunks traversal into the string
// tables and ordered mapping table of a single merged source map.
type mapBuilder struct {
	text     strings.Builder
	keepText bool

	mappings   []sourcemap.Mapping
	sources    *sourcemap.StringTable
	contents   []string
	hasContent bool
	names      *sourcemap.StringTable

	sourceIdx []int // emitter index -> sources table index
	nameIdx   []int // emitter index -> names table index
}

func newMapBuilder(keepText bool) *mapBuilder {
	return &mapBuilder{
		keepText: keepText,
		sources:  sourcemap.NewStringTable(),
		names:    sourcemap.NewStringTable(),
	}
}

func (b *mapBuilder) onChunk(chunk string, m sourcemap.Mapping) error {
	if b.keepText {
		b.text.WriteString(chunk)
	}
	if !m.HasOriginal() {
		return nil
	}
	m.SourceIndex = b.sourceIdx[m.SourceIndex]
	if m.NameIndex != sourcemap.NoIndex {
		m.NameIndex = b.nameIdx[m.NameIndex]
	}
	b.mappings = append(b.mappings, m)
	return nil
}

func (b *mapBuilder) onSource(i int, source, content string) error {
	b.sourceIdx = growIndex(b.sourceIdx, i)
	idx := b.sources.Add(source)
	b.sourceIdx[i] = idx
	for len(b.contents) <= idx {
		b.contents = append(b.contents, "")
	}
	if content != "" && b.contents[idx] == "" {
		b.contents[idx] = content
		b.hasContent = true
	}
	return nil
}

func (b *mapBuilder) onName(i int, name string) error {
	b.nameIdx = growIndex(b.nameIdx, i)
	b.nameIdx[i] = b.names.Add(name)
	return nil
}

// build finalizes the merged map, or returns nil when no mapping entry was
// produced. Entries are kept ordered by generated position; entries at an
// identical generated position preserve their relative emission order, so
// the entry of the transformation that happened last comes out last.
func (b *mapBuilder) build() *sourcemap.Map {
	if len(b.mappings) == 0 {
		return nil
	}
	sort.SliceStable(b.mappings, func(i, j int) bool {
		return b.mappings[i].Before(b.mappings[j])
	})
	var contents []string
	if b.hasContent {
		contents = b.contents[:b.sources.Len()]
	}
	return sourcemap.New(b.mappings, b.sources.Items(), contents, b.names.Items())
}

func growIndex(s []int, i int) []int {
	for len(s) <= i {
		s = append(s, 0)
	}
	return s
}

// getMap derives the merged mapping table of a node.
func getMap(s Source, opts MapOptions) (*sourcemap.Map, error) {
	b := newMapBuilder(false)
	if _, err := s.streamChunks(opts, b.onChunk, b.onSource, b.onName); err != nil {
		return nil, err
	}
	return b.build(), nil
}

// getTextAndMap derives text and merged mapping table in one traversal.
func getTextAndMap(s Source, opts MapOptions) (string, *sourcemap.Map, error) {
	b := newMapBuilder(true)
	if _, err := s.streamChunks(opts, b.onChunk, b.onSource, b.onName); err != nil {
		return "", nil, err
	}
	return b.text.String(), b.build(), nil
}

// writeText is the common WriteTo implementation for nodes that have their
// text readily available.
func writeText(w io.Writer, text string) (int64, error) {
	n, err := io.WriteString(w, text)
	return int64(n), err
}
