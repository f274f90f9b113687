package webserver

import (
	"embed"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/jyotishdesk/backoffice/internal/forms"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer executes one template set per page: the shared layout plus the
// page's own "content" block.
type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"label":   forms.Label,
	"add":     func(a, b int) int { return a + b },
	"pageURL": pageURL,
	"pages":   pageWindow,
	"itoa":    strconv.Itoa,
}

func NewRenderer() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse layout")
	}
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, f := range files {
		name := strings.TrimSuffix(path.Base(f), ".html")
		if name == "layout" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, f)
		if err != nil {
			return nil, errors.Wrapf(err, "parse %s", f)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return errors.Errorf("template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// pageURL returns base with the paging and search parameters set.
func pageURL(base string, page, pageSize int, search string) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	if pageSize > 0 {
		q.Set("page_size", strconv.Itoa(pageSize))
	}
	if search != "" {
		q.Set("search", search)
	}
	return base + "?" + q.Encode()
}

// pageWindow returns up to seven page numbers around current.
func pageWindow(current, total int) []int {
	if total < 1 {
		total = 1
	}
	start := current - 3
	if start < 1 {
		start = 1
	}
	end := start + 6
	if end > total {
		end = total
		if start = end - 6; start < 1 {
			start = 1
		}
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}
