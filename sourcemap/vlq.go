package sourcemap

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedMappings is wrapped by every error DecodeMappings returns.
var ErrMalformedMappings = errors.New("malformed mappings")

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Rev = func() (rev [256]int8) {
	for i := range rev {
		rev[i] = -1
	}
	for i := 0; i < len(base64Chars); i++ {
		rev[base64Chars[i]] = int8(i)
	}
	return rev
}()

const (
	vlqContinuationBit = 32
	vlqValueMask       = 31
	// A segment field never legitimately needs more than 6 base64 digits
	// (30 bits of payload); longer sequences indicate corrupt input.
	vlqMaxShift = 30
)

// appendVLQ appends the base64 VLQ representation of v, using the zig-zag
// style sign bit in the lowest position.
func appendVLQ(dst []byte, v int) []byte {
	var u uint32
	if v < 0 {
		u = uint32(-v)<<1 | 1
	} else {
		u = uint32(v) << 1
	}
	for {
		digit := u & vlqValueMask
		u >>= 5
		if u != 0 {
			digit |= vlqContinuationBit
		}
		dst = append(dst, base64Chars[digit])
		if u == 0 {
			return dst
		}
	}
}

// EncodeMappings produces the "mappings" text for the given table. Entries
// must be ordered by generated line, then generated column; field indices
// are written as deltas from their previous occurrence, with the generated
// column delta resetting at every line boundary.
//
// Entries without an original location are written as 1-field segments,
// entries without a name as 4-field segments.
func EncodeMappings(mappings []Mapping) string {
	var buf []byte
	generatedLine := 1
	generatedColumn := 0
	sourceIndex := 0
	originalLine := 1
	originalColumn := 0
	nameIndex := 0
	comma := false

	for _, m := range mappings {
		for m.GeneratedLine > generatedLine {
			buf = append(buf, ';')
			generatedLine++
			generatedColumn = 0
			comma = false
		}
		if comma {
			buf = append(buf, ',')
		}
		comma = true

		buf = appendVLQ(buf, m.GeneratedColumn-generatedColumn)
		generatedColumn = m.GeneratedColumn

		if !m.HasOriginal() {
			continue
		}
		buf = appendVLQ(buf, m.SourceIndex-sourceIndex)
		sourceIndex = m.SourceIndex
		buf = appendVLQ(buf, m.OriginalLine-originalLine)
		originalLine = m.OriginalLine
		buf = appendVLQ(buf, m.OriginalColumn-originalColumn)
		originalColumn = m.OriginalColumn

		if m.NameIndex == NoIndex {
			continue
		}
		buf = appendVLQ(buf, m.NameIndex-nameIndex)
		nameIndex = m.NameIndex
	}
	return string(buf)
}

// DecodeMappings parses the "mappings" text of a version 3 source map into
// a mapping table. It fails on segments with an invalid field count, bytes
// outside the base64 alphabet and truncated continuation sequences; all
// errors wrap ErrMalformedMappings and decoding never panics.
func DecodeMappings(text string) ([]Mapping, error) {
	var mappings []Mapping

	generatedLine := 1
	generatedColumn := 0
	sourceIndex := 0
	originalLine := 1
	originalColumn := 0
	nameIndex := 0

	r := strings.NewReader(text)
	fields := [5]int{}
	nfields := 0

	flush := func() error {
		switch nfields {
		case 0:
			return nil
		case 1, 4, 5:
		default:
			return fmt.Errorf("%w: segment has %d fields", ErrMalformedMappings, nfields)
		}
		generatedColumn += fields[0]
		m := Mapping{
			GeneratedLine:   generatedLine,
			GeneratedColumn: generatedColumn,
			SourceIndex:     NoIndex,
			NameIndex:       NoIndex,
		}
		if generatedColumn < 0 {
			return fmt.Errorf("%w: negative generated column %d", ErrMalformedMappings, generatedColumn)
		}
		if nfields >= 4 {
			sourceIndex += fields[1]
			originalLine += fields[2]
			originalColumn += fields[3]
			if sourceIndex < 0 || originalLine < 1 || originalColumn < 0 {
				return fmt.Errorf("%w: negative original position (source %d, line %d, column %d)",
					ErrMalformedMappings, sourceIndex, originalLine, originalColumn)
			}
			m.SourceIndex = sourceIndex
			m.OriginalLine = originalLine
			m.OriginalColumn = originalColumn
		}
		if nfields == 5 {
			nameIndex += fields[4]
			if nameIndex < 0 {
				return fmt.Errorf("%w: negative name index %d", ErrMalformedMappings, nameIndex)
			}
			m.NameIndex = nameIndex
		}
		mappings = append(mappings, m)
		nfields = 0
		return nil
	}

	for r.Len() != 0 {
		b, _ := r.ReadByte()
		switch b {
		case ',':
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		case ';':
			if err := flush(); err != nil {
				return nil, err
			}
			generatedLine++
			generatedColumn = 0
			continue
		}
		if nfields == len(fields) {
			return nil, fmt.Errorf("%w: segment has more than %d fields", ErrMalformedMappings, len(fields))
		}

		v := uint32(0)
		shift := uint(0)
		for {
			o := base64Rev[b]
			if o < 0 {
				return nil, fmt.Errorf("%w: byte %q is not in the base64 alphabet", ErrMalformedMappings, b)
			}
			if shift > vlqMaxShift {
				return nil, fmt.Errorf("%w: VLQ value exceeds %d bits", ErrMalformedMappings, vlqMaxShift)
			}
			v |= uint32(o&vlqValueMask) << shift
			if o&vlqContinuationBit == 0 {
				break
			}
			shift += 5
			var err error
			if b, err = r.ReadByte(); err != nil {
				return nil, fmt.Errorf("%w: truncated VLQ continuation sequence", ErrMalformedMappings)
			}
			if b == ',' || b == ';' {
				return nil, fmt.Errorf("%w: separator %q inside VLQ continuation sequence", ErrMalformedMappings, b)
			}
		}
		value := int(v >> 1)
		if v&1 != 0 {
			value = -value
		}
		fields[nfields] = value
		nfields++
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return mappings, nil
}
