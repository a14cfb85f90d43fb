package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-erp/meridian-erp/internal/hr"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/projects"
	reportshttp "github.com/meridian-erp/meridian-erp/internal/reports/http"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	LedgerHandler   *ledger.Handler
	ReportsHandler  *reportshttp.Handler
	ProjectsHandler *projects.Handler
	HRHandler       *hr.Handler
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(api chi.Router) {
		if params.LedgerHandler != nil {
			api.Route("/ledger", params.LedgerHandler.MountRoutes)
		}
		if params.ReportsHandler != nil {
			api.Route("/statements", params.ReportsHandler.MountRoutes)
		}
		if params.ProjectsHandler != nil {
			api.Route("/projects", params.ProjectsHandler.MountRoutes)
		}
		if params.HRHandler != nil {
			api.Route("/hr", params.HRHandler.MountRoutes)
		}
	})

	return r
}
