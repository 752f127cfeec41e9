// Package layout defines the declarative document description rendered into
// PDF bytes. A Layout is deliberately flat: a titled document made of
// sections holding label/value rows and free paragraphs, one level deep.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/planpress/planpress/internal/model"
)

// Row is a labeled value line inside a section.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Section is a titled block of rows and/or a paragraph.
type Section struct {
	Title     string `json:"title,omitempty"`
	Rows      []Row  `json:"rows,omitempty"`
	Paragraph string `json:"paragraph,omitempty"`
	Info      string `json:"info,omitempty"`
}

// Layout is the top-level document description.
type Layout struct {
	Title    string    `json:"title"`
	Subtitle string    `json:"subtitle,omitempty"`
	Footer   string    `json:"footer,omitempty"`
	Sections []Section `json:"sections"`
}

// FromTemplate builds a layout from a template definition and collected form
// values. Textarea fields become paragraphs under their own heading; all
// other fields become label/value rows grouped by template section. Empty
// optional values are dropped.
func FromTemplate(tpl model.Template, values map[string]string) Layout {
	doc := Layout{
		Title:    tpl.Name,
		Subtitle: tpl.Description,
	}
	for _, section := range tpl.Sections {
		out := Section{Title: section.Title, Info: section.InfoText}
		for _, field := range section.Fields {
			value := strings.TrimSpace(values[field.ID])
			if value == "" && !field.Required {
				continue
			}
			if field.Type == model.FieldTypeTextarea {
				if out.Paragraph != "" {
					out.Paragraph += "\n\n"
				}
				out.Paragraph += fmt.Sprintf("%s\n%s", field.Label, value)
				continue
			}
			out.Rows = append(out.Rows, Row{Label: field.Label, Value: value})
		}
		if len(out.Rows) > 0 || out.Paragraph != "" {
			doc.Sections = append(doc.Sections, out)
		}
	}
	return doc
}

// FromFile parses a layout description from a JSON file, optionally merging
// `{{id}}` placeholders with values. Used by the CLI render path.
func FromFile(path string, values map[string]string) (Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	var doc Layout
	if err := json.Unmarshal(data, &doc); err != nil {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}
	if len(doc.Sections) == 0 {
		return Layout{}, fmt.Errorf("layout %s has no sections", path)
	}
	if len(values) > 0 {
		doc = doc.interpolate(values)
	}
	return doc, nil
}

func (l Layout) interpolate(values map[string]string) Layout {
	repl := func(s string) string {
		for id, v := range values {
			s = strings.ReplaceAll(s, "{{"+id+"}}", v)
		}
		return s
	}
	out := Layout{
		Title:    repl(l.Title),
		Subtitle: repl(l.Subtitle),
		Footer:   repl(l.Footer),
	}
	for _, section := range l.Sections {
		s := Section{
			Title:     repl(section.Title),
			Paragraph: repl(section.Paragraph),
			Info:      repl(section.Info),
		}
		for _, row := range section.Rows {
			s.Rows = append(s.Rows, Row{Label: repl(row.Label), Value: repl(row.Value)})
		}
		out.Sections = append(out.Sections, s)
	}
	return out
}
