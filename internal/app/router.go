package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/campusgive/campusgive/internal/auth"
	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/observability"
	"github.com/campusgive/campusgive/internal/platform/httpx"
	"github.com/campusgive/campusgive/internal/view"
	"github.com/campusgive/campusgive/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	Templates        *view.Engine
	Guard            *auth.SessionGuard
	AuthHandler      *auth.Handler
	DonationsHandler *donations.Handler
	Metrics          *observability.Metrics
	// UploadDir is served under /uploads/ when set.
	UploadDir string
}

// NewRouter constructs the chi.Router with CampusGive defaults.
func NewRouter(params RouterParams) http.Handler {
	if params.Logger == nil {
		params.Logger = slog.Default()
	}
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	pages := newPages(params)
	r.Get("/", pages.render("pages/index.html", "Home"))
	r.Get("/login", pages.render("pages/login.html", "Log in"))
	r.Get("/signup", pages.render("pages/signup.html", "Sign up"))
	r.Group(func(r chi.Router) {
		r.Use(params.Guard.RequirePage("/login"))
		r.Get("/dashboard", pages.render("pages/dashboard.html", "Dashboard"))
		r.Get("/donate", pages.render("pages/donate.html", "Donate"))
		r.Get("/browse", pages.render("pages/browse.html", "Browse"))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/api", params.DonationsHandler.MountRoutes)

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", cacheControl("public, max-age=3600", fileServer))
	}
	if params.UploadDir != "" {
		fileServer := http.StripPrefix("/uploads/", http.FileServer(noListing{http.Dir(params.UploadDir)}))
		r.Handle("/uploads/*", cacheControl("public, max-age=86400", fileServer))
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		httpx.Error(w, http.StatusNotFound, "Page not found")
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return r
}

// cacheControl sets a Cache-Control header before serving files.
func cacheControl(value string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", value)
		next.ServeHTTP(w, r)
	})
}

// noListing hides directory indexes.
type noListing struct {
	fs http.FileSystem
}

func (n noListing) Open(name string) (http.File, error) {
	f, err := n.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
