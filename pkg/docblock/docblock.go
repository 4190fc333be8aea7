// Package docblock extracts the free-text description and @tags of a
// documentation comment.
package docblock

import (
	"regexp"
	"strings"

	"github.com/gnana997/vuestories/pkg/textutil"
)

var tagLine = regexp.MustCompile(`^@(\S+)(?:\s+(.*))?$`)

// Tag is one @tag occurrence.
type Tag struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Tags maps a tag name to its occurrences in source order.
type Tags map[string][]Tag

// First returns the description of the first occurrence of name.
func (t Tags) First(name string) (string, bool) {
	if occ := t[name]; len(occ) > 0 {
		return occ[0].Description, true
	}
	return "", false
}

// Docblock is the parsed form of a documentation comment.
type Docblock struct {
	// Description is nil when the comment has no free-text line.
	Description *string
	Tags        Tags
}

// Extract parses a raw comment block. Input that is not a block comment
// yields no description and no tags.
func Extract(raw string) Docblock {
	doc := Docblock{Tags: Tags{}}

	var desc []string
	for _, line := range textutil.DocblockLines(raw) {
		if line == "" {
			continue
		}
		if tag, ok := ParseTag(line); ok {
			doc.Tags[tag.Title] = append(doc.Tags[tag.Title], tag)
			continue
		}
		desc = append(desc, line)
	}

	if len(desc) > 0 {
		d := strings.Join(desc, "\n")
		doc.Description = &d
	}
	return doc
}

// ParseTag parses a single stripped line of the form "@name rest".
func ParseTag(line string) (Tag, bool) {
	m := tagLine.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return Tag{}, false
	}
	return Tag{Title: m[1], Description: strings.TrimSpace(m[2])}, true
}
