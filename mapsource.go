package sources

import (
	"errors"
	"fmt"
	"io"

	"github.com/gopherjs/sources/internal/mapcache"
	"github.com/gopherjs/sources/sourcemap"
)

// MaxMapChainDepth bounds transitive map resolution. The wire format puts no
// limit on how deep generated→intermediate→original chains can nest, so the
// bound is an implementation policy: generous enough for any real build
// pipeline, finite so that a pathological self-referential configuration is
// reported as a data error instead of exhausting the process.
const MaxMapChainDepth = 64

// ErrMapChainTooDeep reports a transitive map chain exceeding MaxMapChainDepth.
var ErrMapChainTooDeep = errors.New("source map chain too deep")

// InnerMap associates an intermediate source name with the source map that
// produced it, for transitive resolution inside a SourceMapSource.
type InnerMap struct {
	// Source is the name of the intermediate source this map describes,
	// i.e. the text that was generated from the map's own sources.
	Source string
	Map    *sourcemap.Map
}

// SourceMapSource is generated text carrying an explicit, pre-existing
// source map. Optionally it carries inner maps: when one of the outer map's
// sources is itself the generated output of an earlier transformation, its
// positions are re-resolved through that transformation's map, so the merged
// output points at the true originals.
type SourceMapSource struct {
	value string
	name  string
	m     *sourcemap.Map
	inner []InnerMap
}

// NewSourceMapSource returns a source for generated text with an attached
// map. name identifies the text in diagnostics. Inner maps, if any, are
// applied in order during resolution, each to positions inside the source it
// declares. The maps' string table references are validated immediately;
// chains longer than MaxMapChainDepth are rejected.
func NewSourceMapSource(value, name string, m *sourcemap.Map, inner ...InnerMap) (*SourceMapSource, error) {
	if m == nil {
		return nil, fmt.Errorf("source %q: map must not be nil", name)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("source %q: %w", name, err)
	}
	if len(inner) > MaxMapChainDepth {
		return nil, fmt.Errorf("%w: source %q has %d chained maps (limit %d)",
			ErrMapChainTooDeep, name, len(inner), MaxMapChainDepth)
	}
	for _, im := range inner {
		if im.Map == nil {
			return nil, fmt.Errorf("source %q: inner map for %q must not be nil", name, im.Source)
		}
		if err := im.Map.Validate(); err != nil {
			return nil, fmt.Errorf("source %q: inner map for %q: %w", name, im.Source, err)
		}
	}
	return &SourceMapSource{value: value, name: name, m: m, inner: inner}, nil
}

// Name returns the identity of the generated text.
func (s *SourceMapSource) Name() string { return s.name }

func (s *SourceMapSource) Text() string { return s.value }

func (s *SourceMapSource) Size() int { return len(s.value) }

func (s *SourceMapSource) Map(opts MapOptions) (*sourcemap.Map, error) {
	return getMap(s, opts)
}

func (s *SourceMapSource) TextAndMap(opts MapOptions) (string, *sourcemap.Map, error) {
	return getTextAndMap(s, opts)
}

func (s *SourceMapSource) WriteTo(w io.Writer) (int64, error) {
	return writeText(w, s.value)
}

func (s *SourceMapSource) streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	if len(s.inner) == 0 {
		return streamTextWithMap(s.value, s.m, opts, onChunk, onSource, onName)
	}

	decoded, err := mapcache.Decode(s.m.Mappings)
	if err != nil {
		return generatedInfo{}, fmt.Errorf("source %q: %w", s.name, err)
	}
	resolved, err := s.resolveAll(decoded, onSource, onName)
	if err != nil {
		return generatedInfo{}, err
	}
	return emitMappedText(s.value, resolved, opts, onChunk)
}

// resolvedPosition is an original position during transitive resolution.
type resolvedPosition struct {
	source  string
	content string
	line    int
	column  int
	name    string
}

// resolveAll rewrites every decoded outer mapping through the inner map
// chain and re-indexes sources and names into a fresh emission space, since
// resolution changes which sources the entries point at.
func (s *SourceMapSource) resolveAll(decoded []sourcemap.Mapping, onSource onSourceFunc, onName onNameFunc) ([]sourcemap.Mapping, error) {
	innerTables := make([][]sourcemap.Mapping, len(s.inner))
	for i, im := range s.inner {
		table, err := mapcache.Decode(im.Map.Mappings)
		if err != nil {
			return nil, fmt.Errorf("source %q: inner map for %q: %w", s.name, im.Source, err)
		}
		innerTables[i] = table
	}

	sources := sourcemap.NewStringTable()
	names := sourcemap.NewStringTable()
	resolved := make([]sourcemap.Mapping, 0, len(decoded))

	for _, m := range decoded {
		if !m.HasOriginal() {
			continue
		}
		pos := resolvedPosition{
			source: s.m.Sources[m.SourceIndex],
			line:   m.OriginalLine,
			column: m.OriginalColumn,
		}
		pos.content, _ = s.m.SourceContent(m.SourceIndex)
		if m.HasName() {
			pos.name = s.m.Names[m.NameIndex]
		}
		pos = s.resolve(pos, innerTables)

		out := m
		before := sources.Len()
		out.SourceIndex = sources.Add(pos.source)
		if out.SourceIndex == before {
			if err := onSource(out.SourceIndex, pos.source, pos.content); err != nil {
				return nil, err
			}
		}
		out.OriginalLine = pos.line
		out.OriginalColumn = pos.column
		out.NameIndex = sourcemap.NoIndex
		if pos.name != "" {
			before = names.Len()
			out.NameIndex = names.Add(pos.name)
			if out.NameIndex == before {
				if err := onName(out.NameIndex, pos.name); err != nil {
					return nil, err
				}
			}
		}
		resolved = append(resolved, out)
	}
	return resolved, nil
}

// resolve follows the inner map chain from an intermediate position to the
// deepest original it reaches. A map only applies while the current position
// is inside the source it declares, and a lookup that finds no entry at the
// queried position keeps the intermediate position rather than fabricating
// one.
func (s *SourceMapSource) resolve(pos resolvedPosition, innerTables [][]sourcemap.Mapping) resolvedPosition {
	for i, im := range s.inner {
		if pos.source != im.Source {
			continue
		}
		e, ok := lookupMapping(innerTables[i], pos.line, pos.column)
		if !ok || !e.HasOriginal() {
			break
		}
		// The entry covers the queried position; carry the distance from
		// the entry's start over to the original side.
		advance := pos.column - e.GeneratedColumn
		pos.source = im.Map.Sources[e.SourceIndex]
		pos.content, _ = im.Map.SourceContent(e.SourceIndex)
		pos.line = e.OriginalLine
		pos.column = e.OriginalColumn + advance
		switch {
		case advance == 0 && e.HasName():
			pos.name = im.Map.Names[e.NameIndex]
		case advance != 0:
			// The name described the exact entry position, not an offset
			// into it.
			pos.name = ""
		}
	}
	return pos
}
