package report

import (
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ferretmix/ferretmix/internal/shared"
)

//go:embed templates/*.json
var templateFS embed.FS

// TemplateLine names one report line inside a template.
type TemplateLine struct {
	LineID string `json:"line_id"`
	Name   string `json:"name"`
}

// Subsection groups lines under a nested heading with its own total.
type Subsection struct {
	Name      string         `json:"subsection_name"`
	Lines     []TemplateLine `json:"lines"`
	TotalLine TemplateLine   `json:"total_line"`
}

// Section is one ordered block of a statement. It carries either flat
// lines with a total, subsections, or a calculation marker meaning the
// section is rendered later as a derived total.
type Section struct {
	Name        string         `json:"section_name"`
	Calculation string         `json:"calculation,omitempty"`
	Lines       []TemplateLine `json:"lines,omitempty"`
	Subsections []Subsection   `json:"subsections,omitempty"`
	TotalLine   *TemplateLine  `json:"total_line,omitempty"`
}

// IsCalculation reports whether the section is a placeholder for a derived
// total and must be skipped during the line walk.
func (s Section) IsCalculation() bool {
	return s.Calculation != ""
}

// Template is the declarative statement layout for one report type.
type Template struct {
	ReportName string    `json:"report_name"`
	Sections   []Section `json:"sections"`
}

// LineOption is one mappable report line with its section context. The
// mapping tool offers these as targets for GL codes.
type LineOption struct {
	LineID     string `json:"line_id"`
	Name       string `json:"name"`
	Section    string `json:"section"`
	Subsection string `json:"subsection,omitempty"`
}

// LineOptions lists the mappable line ids of the template in display order.
// Totals and calculation sections are derived, never mapping targets.
func (t *Template) LineOptions() []LineOption {
	var out []LineOption
	for _, section := range t.Sections {
		if section.IsCalculation() {
			continue
		}
		for _, line := range section.Lines {
			out = append(out, LineOption{LineID: line.LineID, Name: line.Name, Section: section.Name})
		}
		for _, sub := range section.Subsections {
			for _, line := range sub.Lines {
				out = append(out, LineOption{LineID: line.LineID, Name: line.Name, Section: section.Name, Subsection: sub.Name})
			}
		}
	}
	return out
}

// TemplateSource loads report templates.
type TemplateSource interface {
	Load(reportType string) (*Template, error)
}

// TemplateStore serves the embedded statement templates.
type TemplateStore struct{}

// NewTemplateStore constructs the embedded template store.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{}
}

// Load reads and validates the template for a report type.
func (ts *TemplateStore) Load(reportType string) (*Template, error) {
	if err := shared.ValidateReportType(reportType); err != nil {
		return nil, err
	}
	data, err := templateFS.ReadFile("templates/" + reportType + "_template.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, reportType, err)
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateInvalid, reportType, err)
	}
	if err := validateTemplate(&tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func validateTemplate(tpl *Template) error {
	if tpl.ReportName == "" {
		return fmt.Errorf("%w: missing report_name", ErrTemplateInvalid)
	}
	if len(tpl.Sections) == 0 {
		return fmt.Errorf("%w: missing sections", ErrTemplateInvalid)
	}
	for _, section := range tpl.Sections {
		if section.IsCalculation() {
			continue
		}
		if section.Name == "" {
			return fmt.Errorf("%w: section without section_name", ErrTemplateInvalid)
		}
		if len(section.Subsections) > 0 {
			for _, sub := range section.Subsections {
				if sub.TotalLine.LineID == "" {
					return fmt.Errorf("%w: subsection %q without total_line", ErrTemplateInvalid, sub.Name)
				}
			}
		}
		if section.TotalLine == nil || section.TotalLine.LineID == "" {
			return fmt.Errorf("%w: section %q without total_line", ErrTemplateInvalid, section.Name)
		}
	}
	return nil
}
