// Package model contains the struct definitions shared across packages.
package model

// FieldType enumerates the input kinds a template may declare.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeTextarea FieldType = "textarea"
	FieldTypeSelect   FieldType = "select"
	FieldTypeEmail    FieldType = "email"
	FieldTypeDate     FieldType = "date"
)

// Field is a single labeled input inside a section. IDs must be unique across
// the whole template; colliding ids silently overwrite each other's values.
type Field struct {
	ID          string    `json:"id" yaml:"id"`
	Label       string    `json:"name" yaml:"name"`
	Type        FieldType `json:"type" yaml:"type"`
	Required    bool      `json:"required" yaml:"required"`
	Placeholder string    `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	// Rows only applies to textarea fields.
	Rows int `json:"rows,omitempty" yaml:"rows,omitempty"`
}

// Section groups fields under a heading within a step. Purely organizational;
// it does not affect validation or the submission payload.
type Section struct {
	Step     int     `json:"step" yaml:"step"`
	Title    string  `json:"section" yaml:"section"`
	Fields   []Field `json:"fields" yaml:"fields"`
	InfoText string  `json:"infoText,omitempty" yaml:"infoText,omitempty"`
}

// Template is a named document-generation schema: ordered steps of field
// groups plus optional default values. Immutable once loaded.
type Template struct {
	ID          string            `json:"id" yaml:"id"`
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	TemplateID  string            `json:"template_id" yaml:"template_id"`
	Sections    []Section         `json:"fields" yaml:"fields"`
	Defaults    map[string]string `json:"defaults,omitempty" yaml:"defaults,omitempty"`
}

// TemplateSummary is the listing shape returned by the templates endpoint.
type TemplateSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Summary strips a template down to its listing fields.
func (t Template) Summary() TemplateSummary {
	return TemplateSummary{ID: t.ID, Name: t.Name, Description: t.Description}
}

// SectionsForStep returns the sections whose step ordinal matches.
func (t Template) SectionsForStep(step int) []Section {
	var out []Section
	for _, s := range t.Sections {
		if s.Step == step {
			out = append(out, s)
		}
	}
	return out
}

// FlatFields returns every field across all steps in declaration order.
func (t Template) FlatFields() []Field {
	var out []Field
	for _, s := range t.Sections {
		out = append(out, s.Fields...)
	}
	return out
}

// MinStep and MaxStep bound the wizard. Ordinals need not be contiguous.
func (t Template) MinStep() int {
	min := 0
	for _, s := range t.Sections {
		if min == 0 || s.Step < min {
			min = s.Step
		}
	}
	if min == 0 {
		min = 1
	}
	return min
}

func (t Template) MaxStep() int {
	max := 1
	for _, s := range t.Sections {
		if s.Step > max {
			max = s.Step
		}
	}
	return max
}
