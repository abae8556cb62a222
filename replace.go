package sources

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gopherjs/sources/internal/errorList"
	"github.com/gopherjs/sources/sourcemap"
)

// ErrInvalidReplacement reports a replacement range that is out of bounds,
// decreasing or overlapping a neighbour.
var ErrInvalidReplacement = errors.New("invalid replacement range")

// Replacement substitutes the half-open byte range [Start, End) of a base
// source's generated text with Text. An optional Name attributes the
// inserted text to the identifier it replaces, keeping a mapping entry at
// the start of the insertion; without a name the inserted text is unmapped.
type Replacement struct {
	Start int
	End   int
	Text  string
	Name  string
}

// ReplaceSource applies an ordered, non-overlapping sequence of replacements
// to the generated text of a base source.
type ReplaceSource struct {
	base         Source
	replacements []Replacement
}

// NewReplaceSource validates the replacement ranges against the base's
// current size and returns the replaced source. Ranges must be within
// bounds, non-decreasing in start offset and non-overlapping; all violations
// are reported at once.
func NewReplaceSource(base Source, replacements []Replacement) (*ReplaceSource, error) {
	size := base.Size()
	var errs errorList.ErrorList
	for i, r := range replacements {
		switch {
		case r.Start < 0 || r.End < r.Start:
			errs = errs.Append(fmt.Errorf("%w: replacement %d has range [%d, %d)", ErrInvalidReplacement, i, r.Start, r.End))
		case r.End > size:
			errs = errs.Append(fmt.Errorf("%w: replacement %d ends at %d, past the base size %d", ErrInvalidReplacement, i, r.End, size))
		}
		if i > 0 {
			prev := replacements[i-1]
			if r.Start < prev.Start {
				errs = errs.Append(fmt.Errorf("%w: replacement %d starts at %d, before replacement %d at %d", ErrInvalidReplacement, i, r.Start, i-1, prev.Start))
			} else if r.Start < prev.End {
				errs = errs.Append(fmt.Errorf("%w: replacement %d overlaps replacement %d", ErrInvalidReplacement, i, i-1))
			}
		}
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	rs := make([]Replacement, len(replacements))
	copy(rs, replacements)
	return &ReplaceSource{base: base, replacements: rs}, nil
}

func (s *ReplaceSource) Text() string {
	return s.splice(s.base.Text())
}

func (s *ReplaceSource) Size() int {
	size := s.base.Size()
	for _, r := range s.replacements {
		size += len(r.Text) - (r.End - r.Start)
	}
	return size
}

func (s *ReplaceSource) Map(opts MapOptions) (*sourcemap.Map, error) {
	return getMap(s, opts)
}

func (s *ReplaceSource) TextAndMap(opts MapOptions) (string, *sourcemap.Map, error) {
	return getTextAndMap(s, opts)
}

func (s *ReplaceSource) WriteTo(w io.Writer) (int64, error) {
	base := s.base.Text()
	var total int64
	pos := 0
	write := func(piece string) error {
		n, err := io.WriteString(w, piece)
		total += int64(n)
		return err
	}
	for _, r := range s.replacements {
		if err := write(base[pos:r.Start]); err != nil {
			return total, err
		}
		if err := write(r.Text); err != nil {
			return total, err
		}
		pos = r.End
	}
	return total, write(base[pos:])
}

func (s *ReplaceSource) splice(base string) string {
	var b strings.Builder
	b.Grow(s.Size())
	pos := 0
	for _, r := range s.replacements {
		b.WriteString(base[pos:r.Start])
		b.WriteString(r.Text)
		pos = r.End
	}
	b.WriteString(base[pos:])
	return b.String()
}

// collectedStream is a base source's traversal output captured for offline
// transformation: its text, mapping table and string tables, all still in
// the base's own coordinate and index spaces.
type collectedStream struct {
	text     strings.Builder
	mappings []sourcemap.Mapping
	sources  []string
	contents []string
	names    []string
}

func (c *collectedStream) onChunk(chunk string, m sourcemap.Mapping) error {
	c.text.WriteString(chunk)
	if m.HasOriginal() {
		c.mappings = append(c.mappings, m)
	}
	return nil
}

func (c *collectedStream) onSource(i int, source, content string) error {
	for len(c.sources) <= i {
		c.sources = append(c.sources, "")
		c.contents = append(c.contents, "")
	}
	c.sources[i] = source
	if content != "" {
		c.contents[i] = content
	}
	return nil
}

func (c *collectedStream) onName(i int, name string) error {
	for len(c.names) <= i {
		c.names = append(c.names, "")
	}
	c.names[i] = name
	return nil
}

func (s *ReplaceSource) streamChunks(opts MapOptions, onChunk onChunkFunc, onSource onSourceFunc, onName onNameFunc) (generatedInfo, error) {
	// The base is always collected at column granularity: replacement
	// offsets live in the base's byte coordinate space, and collapsing to
	// line markers happens after the transform, on emission.
	var c collectedStream
	if _, err := s.base.streamChunks(MapOptions{Columns: true}, c.onChunk, c.onSource, c.onName); err != nil {
		return generatedInfo{}, err
	}
	baseText := c.text.String()
	starts := lineStarts(baseText)

	// Base mapping offsets in the base's own byte coordinate space. The
	// collected mappings arrive in generated order, so offsets ascend.
	offsets := make([]int, len(c.mappings))
	for i, m := range c.mappings {
		offsets[i] = starts[m.GeneratedLine-1] + m.GeneratedColumn
	}

	newText := s.splice(baseText)
	newStarts := lineStarts(newText)
	moved := func(m sourcemap.Mapping, offset int) sourcemap.Mapping {
		m.GeneratedLine, m.GeneratedColumn = positionAt(offset, newStarts)
		return m
	}

	// Walk base mappings and replacements in tandem: entries strictly
	// inside a replaced range are dropped, entries at or outside its
	// boundaries shift by the accumulated length delta.
	kept := make([]sourcemap.Mapping, 0, len(c.mappings))
	ri, shift := 0, 0
	for i, m := range c.mappings {
		a := offsets[i]
		for ri < len(s.replacements) {
			r := s.replacements[ri]
			if a < r.End || a == r.Start {
				break
			}
			shift += len(r.Text) - (r.End - r.Start)
			ri++
		}
		if ri < len(s.replacements) {
			if r := s.replacements[ri]; a > r.Start && a < r.End {
				continue
			}
		}
		kept = append(kept, moved(m, a+shift))
	}

	// Synthetic entries for named replacements, attributed to the base's
	// original position at the start of the replaced range.
	names := c.names
	var synthetic []sourcemap.Mapping
	shift = 0
	for _, r := range s.replacements {
		if r.Name != "" {
			if m, ok := baseMappingAt(c.mappings, offsets, r.Start, starts); ok {
				m.NameIndex = len(names)
				names = append(names, r.Name)
				synthetic = append(synthetic, moved(m, r.Start+shift))
			}
		}
		shift += len(r.Text) - (r.End - r.Start)
	}

	// Announce sources and names actually referenced by the final table.
	merged := mergeMappings(kept, synthetic)
	sourcesSeen := make([]bool, len(c.sources))
	namesSeen := make([]bool, len(names))
	for _, m := range merged {
		if !sourcesSeen[m.SourceIndex] {
			sourcesSeen[m.SourceIndex] = true
			if err := onSource(m.SourceIndex, c.sources[m.SourceIndex], c.contents[m.SourceIndex]); err != nil {
				return generatedInfo{}, err
			}
		}
		if m.NameIndex != sourcemap.NoIndex && !namesSeen[m.NameIndex] {
			namesSeen[m.NameIndex] = true
			if err := onName(m.NameIndex, names[m.NameIndex]); err != nil {
				return generatedInfo{}, err
			}
		}
	}

	return emitMappedText(newText, merged, opts, onChunk)
}

// baseMappingAt finds the base mapping covering the given byte offset,
// adjusted to point at the offset itself. The mapping must be on the same
// base line as the offset for the column adjustment to be meaningful.
func baseMappingAt(mappings []sourcemap.Mapping, offsets []int, offset int, starts []int) (sourcemap.Mapping, bool) {
	i := len(offsets) - 1
	for ; i >= 0; i-- {
		if offsets[i] <= offset {
			break
		}
	}
	if i < 0 {
		return sourcemap.Mapping{}, false
	}
	m := mappings[i]
	line, column := positionAt(offset, starts)
	if m.GeneratedLine != line {
		return sourcemap.Mapping{}, false
	}
	m.OriginalColumn += column - m.GeneratedColumn
	m.GeneratedColumn = column
	m.NameIndex = sourcemap.NoIndex
	return m, true
}

// mergeMappings merges two tables ordered by generated position. Entries of
// b sort after entries of a at equal positions: they belong to the
// transformation that happened last.
func mergeMappings(a, b []sourcemap.Mapping) []sourcemap.Mapping {
	if len(b) == 0 {
		return a
	}
	out := make([]sourcemap.Mapping, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if b[j].Before(a[i]) {
			out = append(out, b[j])
			j++
		} else {
			out = append(out, a[i])
			i++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
