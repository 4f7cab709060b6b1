package generator

import (
	"fmt"
	"strings"
	"text/template"
)

// DefaultTemplate is the instruction wrapped around the user's description.
const DefaultTemplate = "Write a clear, short, friendly email based on the description below.\n" +
	"Only use facts stated in the description. Do not invent names, dates, places or numbers.\n" +
	"Do not explain what you're doing. Only output the email body.\n\n" +
	"Description:\n{{.Description}}\n\nEmail:\n"

// Template renders the model input for a description.
type Template struct {
	tmpl *template.Template
}

type templateData struct {
	Description string
}

// ParseTemplate compiles src, which must reference {{.Description}}.
func ParseTemplate(src string) (*Template, error) {
	if !strings.Contains(src, ".Description") {
		return nil, fmt.Errorf("prompt template must reference {{.Description}}")
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	return &Template{tmpl: tmpl}, nil
}

// MustParseTemplate is ParseTemplate that panics on error.
func MustParseTemplate(src string) *Template {
	t, err := ParseTemplate(src)
	if err != nil {
		panic(err)
	}
	return t
}

// Render returns the prompt for description.
func (t *Template) Render(description string) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, templateData{Description: description}); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return b.String(), nil
}

// StripEcho removes prompt from the start of output when a backend echoes
// its input. Only an exact prefix is removed; otherwise output is returned
// as is.
func StripEcho(output, prompt string) string {
	return strings.TrimSpace(strings.TrimPrefix(output, prompt))
}
