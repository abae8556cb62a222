package sources

import (
	"io"

	"github.com/gopherjs/sources/sourcemap"
)

// OriginalSource is the text of an original (leaf) file. It implicitly maps
// every generated line back to the same line of itself.
type OriginalSource struct {
	value string
	name  string
}

// NewOriginalSource returns a source for an original file with the given
// content and source path.
func NewOriginalSource(value, name string) *OriginalSource {
	return &OriginalSource{value: value, name: name}
}

// Name returns the source path the content is attributed to.
func (s *OriginalSource) Name() string { return s.name }

func (s *OriginalSource) Text() string { return s.value }

func (s *OriginalSource) Size() int { return len(s.value) }

func (s *OriginalSource) Map(opts MapOptions) (*sourcemap.Map, error) {
	return getMap(s, opts)
}

func (s *OriginalSource) TextAndMap(opts MapOptions) (string, *sourcemap.Map, error) {
	return getTextAndMap(s, opts)
}

func (s *OriginalSource) WriteTo(w io.Writer) (int64, error) {
	return writeText(w, s.value)
}

func (s *OriginalSource) streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	if err := onSource(0, s.name, s.value); err != nil {
		return generatedInfo{}, err
	}
	line := 1
	for _, l := range splitLines(s.value) {
		m := sourcemap.Mapping{
			GeneratedLine:   line,
			GeneratedColumn: 0,
			SourceIndex:     0,
			OriginalLine:    line,
			OriginalColumn:  0,
			NameIndex:       sourcemap.NoIndex,
		}
		if err := onChunk(l, m); err != nil {
			return generatedInfo{}, err
		}
		line++
	}
	return generatedInfoFor(s.value), nil
}
