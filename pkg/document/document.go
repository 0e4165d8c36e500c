// Package document implements the sectioned text format shared by board
// files: an optional YAML header between "---" fences, a level-1 title,
// free-form body text and named level-2 sections.
package document

import (
	"strings"
)

const fence = "---"

// Document is the decoded form of a board file.
type Document struct {
	Header   *Header
	Title    string
	Body     []string
	Sections []Section
}

// Section is a named level-2 block and its raw lines.
type Section struct {
	Name  string
	Lines []string
}

// Section returns the first section named name, compared case-insensitively.
func (d *Document) Section(name string) (*Section, bool) {
	for i := range d.Sections {
		if strings.EqualFold(d.Sections[i].Name, name) {
			return &d.Sections[i], true
		}
	}
	return nil, false
}

// BodyText returns the body joined into a single string.
func (d *Document) BodyText() string {
	return strings.TrimSpace(strings.Join(d.Body, "\n"))
}

// DecodeOption customises Decode.
type DecodeOption func(*decoder)

type decoder struct {
	sections []string
}

// WithSections restricts the recognised level-2 headings to names, compared
// case-insensitively. An unrecognised heading and the lines after it stay in
// the body verbatim. Without this option every level-2 heading opens a section.
func WithSections(names ...string) DecodeOption {
	return func(d *decoder) {
		d.sections = append(d.sections, names...)
	}
}

func (d *decoder) recognises(name string) bool {
	if d.sections == nil {
		return true
	}
	for _, s := range d.sections {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// Decode parses text. It never fails: a missing or malformed header yields
// an empty Header and everything else lands in the body or a section.
func Decode(text string, opts ...DecodeOption) *Document {
	dec := &decoder{}
	for _, opt := range opts {
		opt(dec)
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	doc := &Document{Header: NewHeader()}
	lines = doc.decodeHeader(lines)

	current := -1
	titled := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case !titled && strings.HasPrefix(trimmed, "# "):
			doc.Title = strings.TrimSpace(trimmed[2:])
			titled = true
			continue
		case strings.HasPrefix(trimmed, "## "):
			name := strings.TrimSpace(trimmed[3:])
			if dec.recognises(name) {
				doc.Sections = append(doc.Sections, Section{Name: name})
				current = len(doc.Sections) - 1
				continue
			}
			current = -1
		}
		if current >= 0 {
			doc.Sections[current].Lines = append(doc.Sections[current].Lines, line)
		} else {
			doc.Body = append(doc.Body, line)
		}
	}

	doc.Body = trimBlank(doc.Body)
	for i := range doc.Sections {
		doc.Sections[i].Lines = trimBlank(doc.Sections[i].Lines)
	}
	return doc
}

// isFence reports whether line is a header fence. Fences start at column 0
// so an indented "---" inside a block scalar stays part of the header.
func isFence(line string) bool {
	return strings.TrimRight(line, " \t") == fence
}

func (d *Document) decodeHeader(lines []string) []string {
	if len(lines) == 0 || !isFence(lines[0]) {
		return lines
	}
	for i := 1; i < len(lines); i++ {
		if isFence(lines[i]) {
			d.Header = ParseHeader([]byte(strings.Join(lines[1:i], "\n")))
			return lines[i+1:]
		}
	}
	return lines
}

// Encode renders the document. Blocks are separated by one blank line and
// an empty header or title is omitted.
func (d *Document) Encode() ([]byte, error) {
	var blocks []string
	if d.Header.Len() > 0 {
		data, err := d.Header.Marshal()
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, fence+"\n"+string(data)+fence)
	}
	if title := strings.TrimSpace(d.Title); title != "" {
		blocks = append(blocks, "# "+title)
	}
	if body := trimBlank(d.Body); len(body) > 0 {
		blocks = append(blocks, strings.Join(body, "\n"))
	}
	for _, s := range d.Sections {
		block := "## " + s.Name
		if lines := trimBlank(s.Lines); len(lines) > 0 {
			block += "\n\n" + strings.Join(lines, "\n")
		}
		blocks = append(blocks, block)
	}
	if len(blocks) == 0 {
		return nil, nil
	}
	// Body text that opens with a fence would read back as a header.
	if d.Header.Len() == 0 && isFence(strings.SplitN(blocks[0], "\n", 2)[0]) {
		blocks[0] = fence + "\n" + fence + "\n\n" + blocks[0]
	}
	return []byte(strings.Join(blocks, "\n\n") + "\n"), nil
}

func trimBlank(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	if start == end {
		return nil
	}
	return lines[start:end]
}

// SplitLines splits text into lines, normalising line endings.
func SplitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return trimBlank(strings.Split(text, "\n"))
}
