package web

import (
	"bytes"
	"html/template"
	"net/http"
	"regexp"
	"strings"
)

var LayoutTemplates = []string{
	"templates/components/layout/*.html",
}

// ContentTemplates are shared by every page, including partial renders.
var ContentTemplates = []string{
	"templates/components/content/*.html",
}

func NewPage(
	title, subTitle, path string,
	templates []string,
	breadCrumbs []BreadCrumb,
	data interface{},
) *Page {
	return &Page{
		Title:       title,
		SubTitle:    subTitle,
		MenuItems:   menuItems,
		Templates:   templates,
		Path:        path,
		Slug:        slugify(title),
		BreadCrumbs: breadCrumbs,
		Status:      http.StatusOK,
		Data:        data,
	}
}

type BreadCrumb struct {
	Title string
	Path  string
}

type Page struct {
	Title       string
	SubTitle    string
	MenuItems   []MenuItem
	Templates   []string
	Path        string
	Slug        string
	BreadCrumbs []BreadCrumb
	Messages    []StatusMessage
	Status      int
	Data        interface{}
}

// WithMessages appends status messages to be shown on this render.
func (p *Page) WithMessages(messages ...StatusMessage) *Page {
	p.Messages = append(p.Messages, messages...)
	return p
}

func (p *Page) Render(w http.ResponseWriter, r *http.Request) {
	// If HX-Request header is set, render content template only
	// If the page was loaded directly, render full layout
	if r.Header.Get("HX-Request") == "true" {
		p.renderPartial(w)
	} else {
		p.renderFull(w)
	}
}

func (p *Page) renderPartial(w http.ResponseWriter) {
	templates := append(append([]string{}, ContentTemplates...), p.Templates...)

	p.execute(w, "Content", templates)
}

func (p *Page) renderFull(w http.ResponseWriter) {
	templates := append(append([]string{}, LayoutTemplates...), ContentTemplates...)
	templates = append(templates, p.Templates...)

	p.execute(w, "Layout", templates)
}

// execute renders into a buffer first so that a template failure still
// produces a clean 500 instead of a truncated page.
func (p *Page) execute(w http.ResponseWriter, name string, templates []string) {
	tmpl, err := template.New("page").Funcs(templateFuncs()).ParseFS(
		TemplatesFS,
		templates...,
	)
	if err != nil {
		log.Errorf("Failed to parse template: %s", err)
		http.Error(w, "Failed to parse template", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, p); err != nil {
		log.Errorf("Failed to execute template: %s", err)
		http.Error(w, "Failed to execute template", http.StatusInternalServerError)
		return
	}

	if p.Path != "" {
		w.Header().Set("HX-Push", p.Path)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if _, err := buf.WriteTo(w); err != nil {
		log.Errorf("Failed to write response: %s", err)
	}
}

var nonAlpha = regexp.MustCompile("[^a-zA-Z]+")

// slugify converts a string to an alpha-only lowercase string
func slugify(s string) string {
	return strings.ToLower(nonAlpha.ReplaceAllString(s, ""))
}
