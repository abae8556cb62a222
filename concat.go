package sources

import (
	"io"
	"strings"

	"github.com/gopherjs/sources/sourcemap"
)

// ConcatSource concatenates an ordered sequence of children with no implied
// separator. Children are held by reference and may be shared with other
// parents; a shared child is computed once when wrapped in a CachedSource.
type ConcatSource struct {
	children []Source
}

// NewConcatSource returns the concatenation of the given children.
func NewConcatSource(children ...Source) *ConcatSource {
	return &ConcatSource{children: children}
}

// Add appends another child. It must only be called while the concatenation
// is still being assembled, before the first query; sources are treated as
// immutable once they are read from.
func (s *ConcatSource) Add(child Source) {
	s.children = append(s.children, child)
}

func (s *ConcatSource) Text() string {
	var b strings.Builder
	for _, c := range s.children {
		b.WriteString(c.Text())
	}
	return b.String()
}

func (s *ConcatSource) Size() int {
	size := 0
	for _, c := range s.children {
		size += c.Size()
	}
	return size
}

func (s *ConcatSource) Map(opts MapOptions) (*sourcemap.Map, error) {
	return getMap(s, opts)
}

func (s *ConcatSource) TextAndMap(opts MapOptions) (string, *sourcemap.Map, error) {
	return getTextAndMap(s, opts)
}

func (s *ConcatSource) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range s.children {
		n, err := c.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *ConcatSource) streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	// Offsets accumulated from the children visited so far: lineOffset is
	// the number of completed generated lines before the current child,
	// colOffset the width already occupied on the line the child starts on.
	lineOffset := 0
	colOffset := 0

	// Sources and names are deduplicated across children by name; the
	// forwarded index space is the table's.
	sources := sourcemap.NewStringTable()
	names := sourcemap.NewStringTable()

	for _, child := range s.children {
		var childSources, childNames []int

		info, err := child.streamChunks(opts,
			func(chunk string, m sourcemap.Mapping) error {
				localLine := m.GeneratedLine
				m.GeneratedLine += lineOffset
				if localLine == 1 {
					m.GeneratedColumn += colOffset
				}
				if m.HasOriginal() {
					m.SourceIndex = childSources[m.SourceIndex]
					if m.NameIndex != sourcemap.NoIndex {
						m.NameIndex = childNames[m.NameIndex]
					}
				}
				return onChunk(chunk, m)
			},
			func(i int, source, content string) error {
				before := sources.Len()
				idx := sources.Add(source)
				childSources = growIndex(childSources, i)
				childSources[i] = idx
				if idx < before && content == "" {
					return nil // Already announced with whatever content we had.
				}
				return onSource(idx, source, content)
			},
			func(i int, name string) error {
				before := names.Len()
				idx := names.Add(name)
				childNames = growIndex(childNames, i)
				childNames[i] = idx
				if idx < before {
					return nil
				}
				return onName(idx, name)
			},
		)
		if err != nil {
			return generatedInfo{}, err
		}

		// A child with a newline starts a fresh column count; a child on a
		// single line extends the current one.
		if info.line > 1 {
			lineOffset += info.line - 1
			colOffset = info.column
		} else {
			colOffset += info.column
		}
	}
	return generatedInfo{line: lineOffset + 1, column: colOffset}, nil
}
