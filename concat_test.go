package sources

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gopherjs/sources/sourcemap"
)

// TestConcatLineOffsets asserts the line-offset/column-reset arithmetic: the
// second child starts mid-line, so its first-line mappings shift by one
// column, and a newline inside it resets the column accumulator.
func TestConcatLineOffsets(t *testing.T) {
	src := NewConcatSource(
		NewOriginalSource("a\nb", "a.txt"),
		NewOriginalSource("c\nd", "b.txt"),
	)

	if got, want := src.Text(), "a\nbc\nd"; got != want {
		t.Errorf("Got: Text() = %q. Want: %q.", got, want)
	}
	if got := src.Size(); got != 6 {
		t.Errorf("Got: Size() = %d. Want: 6.", got)
	}

	m, err := src.Map(MapOptions{Columns: true})
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}
	want := []sourcemap.Mapping{
		{GeneratedLine: 1, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 2, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 2, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 2, GeneratedColumn: 1, SourceIndex: 1, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 3, GeneratedColumn: 0, SourceIndex: 1, OriginalLine: 2, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
	}
	if diff := cmp.Diff(want, decodeTable(t, m)); diff != "" {
		t.Errorf("Merged table differs from expected (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a.txt", "b.txt"}, m.Sources); diff != "" {
		t.Errorf("Sources differ from expected (-want,+got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a\nb", "c\nd"}, m.SourcesContent); diff != "" {
		t.Errorf("SourcesContent differs from expected (-want,+got):\n%s", diff)
	}
}

// TestConcatIdentity: concatenating only original sources maps every
// generated line to itself in the source it came from.
func TestConcatIdentity(t *testing.T) {
	src := NewConcatSource(
		NewOriginalSource("x1\nx2\n", "x.js"),
		NewOriginalSource("y1\n", "y.js"),
	)
	m, err := src.Map(MapOptions{Columns: true})
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}

	want := []sourcemap.Mapping{
		{GeneratedLine: 1, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 2, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 2, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 3, GeneratedColumn: 0, SourceIndex: 1, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
	}
	if diff := cmp.Diff(want, decodeTable(t, m)); diff != "" {
		t.Errorf("Identity table differs from expected (-want,+got):\n%s", diff)
	}
}

func TestConcatSizeAdditivity(t *testing.T) {
	replaced, err := NewReplaceSource(
		NewOriginalSource("abcdef", "c.js"),
		[]Replacement{{Start: 2, End: 4, Text: "XYZ"}},
	)
	if err != nil {
		t.Fatalf("Got: NewReplaceSource() returned error: %s. Want: no error.", err)
	}
	children := []Source{
		NewRawSource("raw\n"),
		NewOriginalSource("orig\n", "o.js"),
		replaced,
	}
	src := NewConcatSource(children...)

	want := 0
	for _, c := range children {
		want += c.Size()
	}
	if got := src.Size(); got != want {
		t.Errorf("Got: Size() = %d. Want: the sum of child sizes %d.", got, want)
	}
	if got := len(src.Text()); got != want {
		t.Errorf("Got: len(Text()) = %d. Want: %d.", got, want)
	}
}

// TestConcatSharedChild: the same child instance under one parent twice is
// deduplicated in the string tables, not in the text.
func TestConcatSharedChild(t *testing.T) {
	shared := NewOriginalSource("s\n", "shared.js")
	src := NewConcatSource(shared, NewRawSource("--\n"), shared)

	if got, want := src.Text(), "s\n--\ns\n"; got != want {
		t.Errorf("Got: Text() = %q. Want: %q.", got, want)
	}
	m, err := src.Map(MapOptions{Columns: true})
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}
	if diff := cmp.Diff([]string{"shared.js"}, m.Sources); diff != "" {
		t.Errorf("Sources differ from expected (-want,+got):\n%s", diff)
	}
	want := []sourcemap.Mapping{
		{GeneratedLine: 1, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 3, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
	}
	if diff := cmp.Diff(want, decodeTable(t, m)); diff != "" {
		t.Errorf("Merged table differs from expected (-want,+got):\n%s", diff)
	}
}

// TestConcatMidLineRaw: a raw child without a newline widens the current
// line for the next child instead of starting a new one.
func TestConcatMidLineRaw(t *testing.T) {
	src := NewConcatSource(
		NewOriginalSource("a\nb", "a.js"),
		NewRawSource("!"),
		NewOriginalSource("c", "c.js"),
	)
	if got, want := src.Text(), "a\nb!c"; got != want {
		t.Errorf("Got: Text() = %q. Want: %q.", got, want)
	}
	m, err := src.Map(MapOptions{Columns: true})
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}
	want := []sourcemap.Mapping{
		{GeneratedLine: 1, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 2, GeneratedColumn: 0, SourceIndex: 0, OriginalLine: 2, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
		{GeneratedLine: 2, GeneratedColumn: 2, SourceIndex: 1, OriginalLine: 1, OriginalColumn: 0, NameIndex: sourcemap.NoIndex},
	}
	if diff := cmp.Diff(want, decodeTable(t, m)); diff != "" {
		t.Errorf("Merged table differs from expected (-want,+got):\n%s", diff)
	}
}

func TestConcatEmpty(t *testing.T) {
	src := NewConcatSource()
	if got := src.Text(); got != "" {
		t.Errorf("Got: Text() = %q. Want: empty.", got)
	}
	m, err := src.Map(MapOptions{Columns: true})
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}
	if m != nil {
		t.Errorf("Got: map %+v. Want: nil.", m)
	}
}

func TestConcatAdd(t *testing.T) {
	src := NewConcatSource(NewRawSource("a"))
	src.Add(NewRawSource("b"))
	if got, want := src.Text(), "ab"; got != want {
		t.Errorf("Got: Text() = %q. Want: %q.", got, want)
	}
}
