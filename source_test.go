package sources

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gopherjs/sources/sourcemap"
)

// decodeTable decodes a derived map's mapping table for assertions.
func decodeTable(t *testing.T, m *sourcemap.Map) []sourcemap.Mapping {
	t.Helper()
	if m == nil {
		t.Fatalf("Got: a nil map. Want: a map with mappings.")
	}
	table, err := m.DecodedMappings()
	if err != nil {
		t.Fatalf("Got: DecodedMappings() returned error: %s. Want: no error.", err)
	}
	return table
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		descr string
		text  string
		want  []string
	}{
		{descr: "empty", text: "", want: nil},
		{descr: "no newline", text: "abc", want: []string{"abc"}},
		{descr: "trailing newline", text: "a\nb\n", want: []string{"a\n", "b\n"}},
		{descr: "unterminated last line", text: "a\nb", want: []string{"a\n", "b"}},
		{descr: "blank lines", text: "\n\n", want: []string{"\n", "\n"}},
	}
	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			if diff := cmp.Diff(test.want, splitLines(test.text)); diff != "" {
				t.Errorf("Lines differ from expected (-want,+got):\n%s", diff)
			}
		})
	}
}

func TestGeneratedInfoFor(t *testing.T) {
	tests := []struct {
		text string
		want generatedInfo
	}{
		{text: "", want: generatedInfo{line: 1, column: 0}},
		{text: "a", want: generatedInfo{line: 1, column: 1}},
		{text: "a\n", want: generatedInfo{line: 2, column: 0}},
		{text: "a\nbc", want: generatedInfo{line: 2, column: 2}},
	}
	for _, test := range tests {
		if got := generatedInfoFor(test.text); got != test.want {
			t.Errorf("Got: generatedInfoFor(%q) = %+v. Want: %+v.", test.text, got, test.want)
		}
	}
}

func TestPositionAt(t *testing.T) {
	starts := lineStarts("ab\ncde\n\nf")
	tests := []struct {
		offset   int
		wantLine int
		wantCol  int
	}{
		{offset: 0, wantLine: 1, wantCol: 0},
		{offset: 2, wantLine: 1, wantCol: 2},
		{offset: 3, wantLine: 2, wantCol: 0},
		{offset: 7, wantLine: 3, wantCol: 0},
		{offset: 9, wantLine: 4, wantCol: 1},
	}
	for _, test := range tests {
		line, col := positionAt(test.offset, starts)
		if line != test.wantLine || col != test.wantCol {
			t.Errorf("Got: positionAt(%d) = %d:%d. Want: %d:%d.",
				test.offset, line, col, test.wantLine, test.wantCol)
		}
	}
}

func TestRawSourceHasNoMap(t *testing.T) {
	src := NewRawSource("var x = 1;\n")
	m, err := src.Map(MapOptions{Columns: true})
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}
	if m != nil {
		t.Errorf("Got: raw source map %+v. Want: nil (no mapping info).", m)
	}
}

func TestTextAndMapMatchesSeparateCalls(t *testing.T) {
	base := NewConcatSource(
		NewRawSource("// banner\n"),
		NewOriginalSource("console.log('a');\n", "a.js"),
		NewOriginalSource("console.log('b');\n", "b.js"),
	)
	opts := MapOptions{Columns: true}

	text, m, err := base.TextAndMap(opts)
	if err != nil {
		t.Fatalf("Got: TextAndMap() returned error: %s. Want: no error.", err)
	}
	if want := base.Text(); text != want {
		t.Errorf("Got: combined text %q. Want: %q.", text, want)
	}
	separate, err := base.Map(opts)
	if err != nil {
		t.Fatalf("Got: Map() returned error: %s. Want: no error.", err)
	}
	if diff := cmp.Diff(separate, m); diff != "" {
		t.Errorf("Combined map differs from a separate Map() call (-want,+got):\n%s", diff)
	}
}

// failingWriter fails after accepting a fixed number of bytes.
type failingWriter struct {
	room int
}

var errSinkFull = errors.New("sink full")

func (w *failingWriter) Write(p []byte) (int, error) {
	if len(p) > w.room {
		n := w.room
		w.room = 0
		return n, errSinkFull
	}
	w.room -= len(p)
	return len(p), nil
}

func TestWriteToPropagatesSinkErrors(t *testing.T) {
	replaced, err := NewReplaceSource(
		NewOriginalSource("aaaa bbbb cccc\n", "wide.js"),
		[]Replacement{{Start: 5, End: 9, Text: "BBBB"}},
	)
	if err != nil {
		t.Fatalf("Got: NewReplaceSource() returned error: %s. Want: no error.", err)
	}

	tests := []struct {
		descr string
		src   Source
	}{
		{descr: "raw", src: NewRawSource(strings.Repeat("x", 64))},
		{descr: "concat", src: NewConcatSource(NewRawSource("0123456789"), NewRawSource("0123456789"))},
		{descr: "replace", src: replaced},
		{descr: "cached", src: NewCachedSource(NewRawSource(strings.Repeat("y", 64)))},
	}
	for _, test := range tests {
		t.Run(test.descr, func(t *testing.T) {
			if _, err := test.src.WriteTo(&failingWriter{room: 7}); !errors.Is(err, errSinkFull) {
				t.Errorf("Got: WriteTo() error %v. Want: the sink's error, unchanged.", err)
			}
		})
	}
}

func TestWriteToMatchesText(t *testing.T) {
	replaced, err := NewReplaceSource(
		NewOriginalSource("one two three\n", "base.js"),
		[]Replacement{{Start: 4, End: 7, Text: "2"}},
	)
	if err != nil {
		t.Fatalf("Got: NewReplaceSource() returned error: %s. Want: no error.", err)
	}
	src := NewConcatSource(
		NewRawSource("// header\n"),
		replaced,
		NewCachedSource(NewOriginalSource("tail\n", "tail.js")),
	)

	var buf strings.Builder
	n, err := src.WriteTo(&buf)
	if err != nil {
		t.Fatalf("Got: WriteTo() returned error: %s. Want: no error.", err)
	}
	if want := src.Text(); buf.String() != want {
		t.Errorf("Got: streamed text %q. Want: %q.", buf.String(), want)
	}
	if want := int64(src.Size()); n != want {
		t.Errorf("Got: WriteTo() reported %d bytes. Want: %d.", n, want)
	}
}
