package rendering

import (
	"embed"
	"html/template"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-scorer/internal/scoring"
	"github.com/jonathan/resume-scorer/internal/types"
)

//go:embed templates/report.html.tmpl
var templateFiles embed.FS

const defaultTemplate = "templates/report.html.tmpl"

var funcs = template.FuncMap{
	"upper": strings.ToUpper,
	"join": func(items []string) string {
		return strings.Join(items, ", ")
	},
	"head": func(items []string, n int) []string {
		if len(items) > n {
			return items[:n]
		}
		return items
	},
	"score": func(v float64) string {
		return strconv.FormatFloat(v, 'f', -1, 64)
	},
	"similarity": func(v float64) string {
		return strconv.FormatFloat(v, 'f', 2, 64)
	},
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}

// templateData is passed to the report template
type templateData struct {
	Report        *types.Report
	Generated     string
	MaxKeywords   float64
	MaxFormatting float64
	MaxContent    float64
}

// HTMLRenderer renders reports with a parsed template. It is safe for concurrent use.
type HTMLRenderer struct {
	name string
	tmpl *template.Template
	now  func() time.Time
}

// NewHTMLRenderer parses the template at templatePath, or the built-in report
// template when templatePath is empty.
func NewHTMLRenderer(templatePath string) (*HTMLRenderer, error) {
	tmpl, err := parseTemplate(templatePath)
	if err != nil {
		return nil, err
	}
	name := templatePath
	if name == "" {
		name = builtinTemplateName
	}
	return &HTMLRenderer{name: name, tmpl: tmpl, now: time.Now}, nil
}

var defaultRenderer = func() *HTMLRenderer {
	r, err := NewHTMLRenderer("")
	if err != nil {
		panic(err)
	}
	return r
}()

// RenderHTML renders report with the built-in template.
func RenderHTML(report *types.Report) (string, error) {
	return defaultRenderer.Render(report)
}

// Render executes the template for report. All report text is HTML-escaped.
func (r *HTMLRenderer) Render(report *types.Report) (string, error) {
	if report == nil {
		return "", &RenderError{Message: "report is nil"}
	}

	data := templateData{
		Report:        report,
		Generated:     r.generatedAt(report.GeneratedAt),
		MaxKeywords:   scoring.MaxKeywords,
		MaxFormatting: scoring.MaxFormatting,
		MaxContent:    scoring.MaxContent,
	}

	var sb strings.Builder
	if err := r.tmpl.Execute(&sb, data); err != nil {
		return "", &TemplateError{Template: r.name, Message: "failed to execute template", Cause: err}
	}
	return sb.String(), nil
}

func (r *HTMLRenderer) generatedAt(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t = r.now()
	}
	return t.UTC().Format("2006-01-02 15:04 UTC")
}

// parseTemplate parses the template file at templatePath, or the embedded
// default when templatePath is empty.
func parseTemplate(templatePath string) (*template.Template, error) {
	if templatePath == "" {
		tmpl, err := template.New(path.Base(defaultTemplate)).Funcs(funcs).ParseFS(templateFiles, defaultTemplate)
		if err != nil {
			return nil, &TemplateError{Template: builtinTemplateName, Message: "failed to parse template", Cause: err}
		}
		return tmpl, nil
	}

	content, err := os.ReadFile(templatePath)
	switch {
	case os.IsNotExist(err):
		return nil, &TemplateError{Template: templatePath, Message: "template file not found", Cause: err}
	case err != nil:
		return nil, &TemplateError{Template: templatePath, Message: "failed to read template file", Cause: err}
	}

	tmpl, err := template.New(filepath.Base(templatePath)).Funcs(funcs).Parse(string(content))
	if err != nil {
		return nil, &TemplateError{Template: templatePath, Message: "failed to parse template", Cause: err}
	}
	return tmpl, nil
}
