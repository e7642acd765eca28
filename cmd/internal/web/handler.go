package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	authapi "nimbus/cmd/internal/auth/api"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ViewerSource resolves the signed-in projection for a request.
type ViewerSource interface {
	ViewerFor(w http.ResponseWriter, r *http.Request) (authapi.Viewer, error)
}

// Handler renders the marketing pages and the standalone auth pages.
type Handler struct {
	log       *slog.Logger
	viewer    ViewerSource
	templates map[string]*template.Template
}

// NewHandler parses the embedded templates and constructs the page handler.
func NewHandler(log *slog.Logger, viewer ViewerSource) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if viewer == nil {
		return nil, errors.New("web: nil viewer source")
	}

	names := []string{"home", "features", "pricing", "about", "contact", "signin", "signup"}
	templates := make(map[string]*template.Template, len(names))
	for _, name := range names {
		t, err := template.ParseFS(templateFS, "templates/layout.html.tmpl", "templates/"+name+".html.tmpl")
		if err != nil {
			return nil, err
		}
		templates[name] = t
	}

	return &Handler{log: log, viewer: viewer, templates: templates}, nil
}

// Register wires the page routes onto the provided mux. The root route is a
// catch-all: unknown paths render the home page.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/", h.handlePage)
	mux.HandleFunc("/features", h.handlePage)
	mux.HandleFunc("/pricing", h.handlePage)
	mux.HandleFunc("/about", h.handlePage)
	mux.HandleFunc("/contact", h.handlePage)
	mux.HandleFunc("/signin", h.handleAuthPage("signin"))
	mux.HandleFunc("/signup", h.handleAuthPage("signup"))
}

type renderData struct {
	Page   PageID
	Title  string
	Nav    []pageInfo
	Viewer authapi.Viewer
	Year   int
}

func (h *Handler) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := ResolvePage(r.URL.Path)
	h.render(w, r, string(id), id)
}

func (h *Handler) handleAuthPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.render(w, r, name, PageHome)
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, id PageID) {
	v, err := h.viewer.ViewerFor(w, r)
	if err != nil {
		// Pages still render while the auth scope is unavailable.
		h.log.Error("web.viewer.fail", "err", err)
		v = authapi.Viewer{}
	}

	data := renderData{
		Page:   id,
		Title:  titleFor(id),
		Nav:    navPages,
		Viewer: v,
		Year:   time.Now().Year(),
	}

	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.log.Error("web.render.fail", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}
