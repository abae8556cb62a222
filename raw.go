package sources

import (
	"io"

	"github.com/gopherjs/sources/sourcemap"
)

// RawSource is a plain text buffer with no inherent mapping. It contributes
// text to the composed output but no entries to the merged map.
type RawSource struct {
	value string
}

// NewRawSource returns a source for text without any mapping information.
func NewRawSource(value string) *RawSource {
	return &RawSource{value: value}
}

func (s *RawSource) Text() string { return s.value }

func (s *RawSource) Size() int { return len(s.value) }

func (s *RawSource) Map(opts MapOptions) (*sourcemap.Map, error) {
	return getMap(s, opts)
}

func (s *RawSource) TextAndMap(opts MapOptions) (string, *sourcemap.Map, error) {
	return getTextAndMap(s, opts)
}

func (s *RawSource) WriteTo(w io.Writer) (int64, error) {
	return writeText(w, s.value)
}

func (s *RawSource) streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	return streamRawText(s.value, onChunk)
}
