// Package sourcemap implements the version 3 source map document and the
// delta-based VLQ/base64 codec of its "mappings" field.
//
// The package is deliberately free of any composition logic: it knows how to
// represent, encode, decode and (de)serialize a mapping table, nothing more.
// The sources package builds merged tables on top of it.
package sourcemap

import (
	"encoding/json"
	"fmt"
	"io"
)

// Version is the source map format version this package reads and writes.
const Version = 3

// Map is a version 3 source map document. SourcesContent runs parallel to
// Sources; an empty string marks a slot that is serialized as JSON null
// (content unknown). A nil SourcesContent omits the field entirely.
type Map struct {
	Version        int
	File           string
	SourceRoot     string
	Sources        []string
	SourcesContent []string
	Names          []string
	Mappings       string
}

// New builds a Map from an already ordered mapping table and its string
// tables, encoding the mappings text. sourcesContent may be nil, or parallel
// to sources with "" for unknown entries.
func New(mappings []Mapping, sources, sourcesContent, names []string) *Map {
	return &Map{
		Version:        Version,
		Sources:        sources,
		SourcesContent: sourcesContent,
		Names:          names,
		Mappings:       EncodeMappings(mappings),
	}
}

// DecodedMappings decodes the mappings text into a table. The result is a
// fresh slice owned by the caller. Most callers inside this module should
// prefer mapcache.Decode, which shares decoded tables across repeated use.
func (m *Map) DecodedMappings() ([]Mapping, error) {
	return DecodeMappings(m.Mappings)
}

// Validate decodes the mappings and checks that every entry references valid
// indices into the sources and names tables.
func (m *Map) Validate() error {
	mappings, err := m.DecodedMappings()
	if err != nil {
		return err
	}
	for _, mp := range mappings {
		if mp.HasOriginal() && mp.SourceIndex >= len(m.Sources) {
			return fmt.Errorf("%w: source index %d out of range (%d sources)",
				ErrMalformedMappings, mp.SourceIndex, len(m.Sources))
		}
		if mp.HasName() && mp.NameIndex >= len(m.Names) {
			return fmt.Errorf("%w: name index %d out of range (%d names)",
				ErrMalformedMappings, mp.NameIndex, len(m.Names))
		}
	}
	return nil
}

// SourceContent returns the embedded content of the source at index i, if
// the map is self-contained enough to carry it.
func (m *Map) SourceContent(i int) (string, bool) {
	if i < 0 || i >= len(m.SourcesContent) || m.SourcesContent[i] == "" {
		return "", false
	}
	return m.SourcesContent[i], true
}

// mapJSON is the wire shape of the document. SourcesContent entries are
// pointers so that unknown content round-trips as null.
type mapJSON struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

func (m *Map) MarshalJSON() ([]byte, error) {
	w := mapJSON{
		Version:    m.Version,
		File:       m.File,
		SourceRoot: m.SourceRoot,
		Sources:    m.Sources,
		Names:      m.Names,
		Mappings:   m.Mappings,
	}
	if w.Version == 0 {
		w.Version = Version
	}
	if w.Sources == nil {
		w.Sources = []string{}
	}
	if w.Names == nil {
		w.Names = []string{}
	}
	if m.SourcesContent != nil {
		w.SourcesContent = make([]*string, len(m.SourcesContent))
		for i := range m.SourcesContent {
			if m.SourcesContent[i] != "" {
				w.SourcesContent[i] = &m.SourcesContent[i]
			}
		}
	}
	return json.Marshal(w)
}

func (m *Map) UnmarshalJSON(data []byte) error {
	var w mapJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*m = Map{
		Version:    w.Version,
		File:       w.File,
		SourceRoot: w.SourceRoot,
		Sources:    w.Sources,
		Names:      w.Names,
		Mappings:   w.Mappings,
	}
	if w.SourcesContent != nil {
		m.SourcesContent = make([]string, len(w.SourcesContent))
		for i, c := range w.SourcesContent {
			if c != nil {
				m.SourcesContent[i] = *c
			}
		}
	}
	return nil
}

// ReadFrom parses a source map document from r.
func ReadFrom(r io.Reader) (*Map, error) {
	var m Map
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to parse source map: %w", err)
	}
	if m.Version != 0 && m.Version != Version {
		return nil, fmt.Errorf("unsupported source map version %d", m.Version)
	}
	return &m, nil
}

// WriteTo serializes the document to w, defaulting the version to 3.
func (m *Map) WriteTo(w io.Writer) error {
	return json.NewEncoder(w).Encode(m)
}
