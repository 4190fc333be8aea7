package edit

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// SourceMap is a version 3 source map.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// JSON encodes the map.
func (sm *SourceMap) JSON() (string, error) {
	data, err := json.Marshal(sm)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DataURL returns the map as an inline sourceMappingURL comment payload.
func (sm *SourceMap) DataURL() (string, error) {
	data, err := sm.JSON()
	if err != nil {
		return "", err
	}
	return "data:application/json;charset=utf-8;base64," + base64.StdEncoding.EncodeToString([]byte(data)), nil
}

// MapOptions controls map generation.
type MapOptions struct {
	Source         string
	File           string
	IncludeContent bool
}

// GenerateMap renders the edited source and a map from it back to the
// original.
func (s *String) GenerateMap(opts MapOptions) (string, *SourceMap) {
	m := newMapBuilder(s.original)
	code := s.render(m)

	sm := &SourceMap{
		Version:  3,
		File:     opts.File,
		Sources:  []string{opts.Source},
		Names:    []string{},
		Mappings: m.encode(),
	}
	if opts.IncludeContent {
		sm.SourcesContent = []string{s.original}
	}
	return code, sm
}

type segment struct {
	genCol, origLine, origCol int
}

type mapBuilder struct {
	original   string
	lineStarts []int

	lines  [][]segment
	genCol int
}

func newMapBuilder(original string) *mapBuilder {
	starts := []int{0}
	for i := 0; i < len(original); i++ {
		if original[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &mapBuilder{original: original, lineStarts: starts, lines: [][]segment{nil}}
}

// locate converts a byte offset into a zero-based line and UTF-16 column.
func (m *mapBuilder) locate(offset int) (int, int) {
	lo, hi := 0, len(m.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if m.lineStarts[mid] <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, utf16Len(m.original[m.lineStarts[lo]:offset])
}

func (m *mapBuilder) add(orig int) {
	line, col := m.locate(orig)
	cur := len(m.lines) - 1
	m.lines[cur] = append(m.lines[cur], segment{genCol: m.genCol, origLine: line, origCol: col})
}

// write advances the generated position over text. A non-negative orig
// marks text copied from (or replacing) the original at that offset.
func (m *mapBuilder) write(text string, orig int) {
	if text == "" {
		return
	}
	if orig >= 0 {
		m.add(orig)
	}
	for i := 0; i < len(text); {
		nl := strings.IndexByte(text[i:], '\n')
		if nl < 0 {
			m.genCol += utf16Len(text[i:])
			return
		}
		i += nl + 1
		m.lines = append(m.lines, nil)
		m.genCol = 0
		if orig >= 0 && i < len(text) && isCopied(m.original, orig, text) {
			m.add(orig + i)
		}
	}
}

// isCopied reports whether text is a verbatim copy of the original at orig,
// in which case every generated line start maps back to a source position.
func isCopied(original string, orig int, text string) bool {
	return orig+len(text) <= len(original) && original[orig:orig+len(text)] == text
}

func (m *mapBuilder) encode() string {
	var b strings.Builder
	prevOrigLine, prevOrigCol := 0, 0
	for i, line := range m.lines {
		if i > 0 {
			b.WriteByte(';')
		}
		prevGenCol := 0
		for j, seg := range line {
			if j > 0 {
				b.WriteByte(',')
			}
			writeVLQ(&b, seg.genCol-prevGenCol)
			writeVLQ(&b, 0)
			writeVLQ(&b, seg.origLine-prevOrigLine)
			writeVLQ(&b, seg.origCol-prevOrigCol)
			prevGenCol = seg.genCol
			prevOrigLine = seg.origLine
			prevOrigCol = seg.origCol
		}
	}
	return b.String()
}

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func writeVLQ(b *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 31
		v >>= 5
		if v > 0 {
			digit |= 32
		}
		b.WriteByte(base64Chars[digit])
		if v == 0 {
			return
		}
	}
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 && r != utf8.RuneError {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// Result is transformed code with its map back to the input.
type Result struct {
	Code string
	Map  *SourceMap
}

// Result renders s with a map whose source and file are id.
func (s *String) Result(id string) *Result {
	code, sm := s.GenerateMap(MapOptions{Source: id, File: id, IncludeContent: true})
	return &Result{Code: code, Map: sm}
}
