package app

import (
	"log/slog"
	"net/http"

	"github.com/campusgive/campusgive/internal/donations"
	"github.com/campusgive/campusgive/internal/view"
)

type pages struct {
	logger    *slog.Logger
	templates *view.Engine
	shared    map[string]any
}

func newPages(params RouterParams) *pages {
	maxUploadMB := int64(5)
	if params.Config != nil && params.Config.UploadMaxBytes > 0 {
		maxUploadMB = params.Config.UploadMaxBytes >> 20
	}
	return &pages{
		logger:    params.Logger,
		templates: params.Templates,
		shared: map[string]any{
			"Categories":  donations.Categories,
			"Conditions":  donations.Conditions,
			"MaxUploadMB": maxUploadMB,
		},
	}
}

func (p *pages) render(name, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := view.TemplateData{
			Title:       title,
			CurrentPath: r.URL.Path,
			Data:        p.shared,
		}
		if err := p.templates.Render(w, name, data); err != nil {
			p.logger.Error("render page", slog.String("page", name), slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	}
}
