package sources

import (
	"io"
	"sync"

	"github.com/gopherjs/sources/internal/mapcache"
	"github.com/gopherjs/sources/sourcemap"
)

// CachedSource wraps a single child and memoizes its derived outputs: text,
// size, mapping tables per option set and the content fingerprint. Sources
// are immutable, so the memoized artifacts stay valid for the node's
// lifetime and no invalidation exists. All methods are safe for concurrent
// use; two callers racing on a cold cache may compute the same artifact
// twice, and either result wins.
type CachedSource struct {
	child Source

	textOnce sync.Once
	text     string

	fpOnce sync.Once
	fp     mapcache.Key

	mu   sync.Mutex
	maps map[MapOptions]*sourcemap.Map
}

// NewCachedSource wraps child in a memoizing source. Wrapping an already
// cached source returns it unchanged.
func NewCachedSource(child Source) *CachedSource {
	if c, ok := child.(*CachedSource); ok {
		return c
	}
	return &CachedSource{child: child, maps: make(map[MapOptions]*sourcemap.Map)}
}

func (s *CachedSource) Text() string {
	s.textOnce.Do(func() { s.text = s.child.Text() })
	return s.text
}

func (s *CachedSource) Size() int {
	return len(s.Text())
}

// Fingerprint returns a content fingerprint of the node's text, usable as a
// cache key when this node is itself an input to a larger cached
// computation. It is computed once and retained.
func (s *CachedSource) Fingerprint() mapcache.Key {
	s.fpOnce.Do(func() { s.fp = mapcache.Fingerprint(s.Text()) })
	return s.fp
}

func (s *CachedSource) Map(opts MapOptions) (*sourcemap.Map, error) {
	return s.cachedMap(opts)
}

func (s *CachedSource) TextAndMap(opts MapOptions) (string, *sourcemap.Map, error) {
	m, err := s.cachedMap(opts)
	if err != nil {
		return "", nil, err
	}
	return s.Text(), m, nil
}

func (s *CachedSource) WriteTo(w io.Writer) (int64, error) {
	return writeText(w, s.Text())
}

// cachedMap returns the memoized map for the given options, deriving it from
// the child on first use. Errors are returned but not memoized; a failed
// derivation is retried by the next caller.
func (s *CachedSource) cachedMap(opts MapOptions) (*sourcemap.Map, error) {
	s.mu.Lock()
	m, ok := s.maps[opts]
	s.mu.Unlock()
	if ok {
		return m, nil
	}

	m, err := s.child.Map(opts)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if prev, ok := s.maps[opts]; ok {
		m = prev // Somebody else finished first; share their table.
	} else {
		s.maps[opts] = m
	}
	s.mu.Unlock()
	return m, nil
}

func (s *CachedSource) streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	m, err := s.cachedMap(opts)
	if err != nil {
		return generatedInfo{}, err
	}
	if m == nil {
		return streamRawText(s.Text(), onChunk)
	}
	return streamTextWithMap(s.Text(), m, opts, onChunk, onSource, onName)
}
