// Package edit applies textual patches keyed by offsets into an original
// source and produces the patched text together with a v3 source map.
//
// Every edit is registered against ORIGINAL byte offsets, so registration
// order never shifts the meaning of later offsets. Inserts carry an
// affinity: left inserts stick to the character before the offset, right
// inserts to the character at the offset. Removing or overwriting a range
// drops the inserts attached to the characters inside it.
package edit

import (
	"fmt"
	"sort"
	"strings"
)

type replacement struct {
	start, end int
	content    string
}

// String is an offset-stable edit list over an original source.
type String struct {
	original string
	left     map[int][]string
	right    map[int][]string
	repls    []replacement
}

// New returns an edit list over src.
func New(src string) *String {
	return &String{
		original: src,
		left:     make(map[int][]string),
		right:    make(map[int][]string),
	}
}

// Original returns the unmodified source.
func (s *String) Original() string { return s.original }

// Slice returns original[start:end].
func (s *String) Slice(start, end int) string { return s.original[start:end] }

// Len returns the length of the original source.
func (s *String) Len() int { return len(s.original) }

// HasChanged reports whether any edit was registered.
func (s *String) HasChanged() bool {
	return len(s.repls) > 0 || len(s.left) > 0 || len(s.right) > 0
}

func (s *String) checkIndex(i int) {
	if i < 0 || i > len(s.original) {
		panic(fmt.Sprintf("edit: offset %d out of range [0,%d]", i, len(s.original)))
	}
}

// PrependLeft inserts content at index, before previous left inserts there.
func (s *String) PrependLeft(index int, content string) {
	s.checkIndex(index)
	s.left[index] = append([]string{content}, s.left[index]...)
}

// AppendLeft inserts content at index, after previous left inserts there.
func (s *String) AppendLeft(index int, content string) {
	s.checkIndex(index)
	s.left[index] = append(s.left[index], content)
}

// PrependRight inserts content at index, before previous right inserts there.
func (s *String) PrependRight(index int, content string) {
	s.checkIndex(index)
	s.right[index] = append([]string{content}, s.right[index]...)
}

// AppendRight inserts content at index, after previous right inserts there.
func (s *String) AppendRight(index int, content string) {
	s.checkIndex(index)
	s.right[index] = append(s.right[index], content)
}

// Prepend inserts content at the very start of the output.
func (s *String) Prepend(content string) { s.PrependLeft(0, content) }

// Append inserts content at the very end of the output.
func (s *String) Append(content string) { s.AppendRight(len(s.original), content) }

// Overwrite replaces original[start:end] with content. Overlapping
// replacements are rejected.
func (s *String) Overwrite(start, end int, content string) error {
	if start < 0 || end > len(s.original) || start >= end {
		return fmt.Errorf("edit: invalid range [%d,%d) for source of length %d", start, end, len(s.original))
	}
	for _, r := range s.repls {
		if start < r.end && r.start < end {
			return fmt.Errorf("edit: range [%d,%d) overlaps edited range [%d,%d)", start, end, r.start, r.end)
		}
	}
	s.repls = append(s.repls, replacement{start: start, end: end, content: content})
	return nil
}

// Remove deletes original[start:end]. An empty range is a no-op.
func (s *String) Remove(start, end int) error {
	if start == end {
		return nil
	}
	return s.Overwrite(start, end, "")
}

// String renders the edited source.
func (s *String) String() string {
	return s.render(nil)
}

func (s *String) points() []int {
	seen := map[int]struct{}{0: {}, len(s.original): {}}
	for p := range s.left {
		seen[p] = struct{}{}
	}
	for p := range s.right {
		seen[p] = struct{}{}
	}
	for _, r := range s.repls {
		seen[r.start] = struct{}{}
		seen[r.end] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (s *String) render(m *mapBuilder) string {
	repls := make([]replacement, len(s.repls))
	copy(repls, s.repls)
	sort.Slice(repls, func(i, j int) bool { return repls[i].start < repls[j].start })

	var b strings.Builder
	b.Grow(len(s.original))
	write := func(text string, orig int) {
		if m != nil {
			m.write(text, orig)
		}
		b.WriteString(text)
	}

	ri, pos := 0, 0
	dropLeftAt := -1
	for _, p := range s.points() {
		if p < pos {
			continue
		}
		if p > pos {
			write(s.original[pos:p], pos)
		}
		if p != dropLeftAt {
			for _, ins := range s.left[p] {
				write(ins, -1)
			}
		}
		if ri < len(repls) && repls[ri].start == p {
			r := repls[ri]
			ri++
			write(r.content, r.start)
			pos = r.end
			dropLeftAt = r.end
			continue
		}
		for _, ins := range s.right[p] {
			write(ins, -1)
		}
		pos = p
	}
	return b.String()
}
