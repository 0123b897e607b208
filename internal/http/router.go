package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/zakati/internal/http/alias"
	"github.com/MrJamesThe3rd/zakati/internal/http/asset"
	"github.com/MrJamesThe3rd/zakati/internal/http/auth"
	"github.com/MrJamesThe3rd/zakati/internal/http/export"
	"github.com/MrJamesThe3rd/zakati/internal/http/importcsv"
	"github.com/MrJamesThe3rd/zakati/internal/http/rates"
	"github.com/MrJamesThe3rd/zakati/internal/http/snapshot"
	"github.com/MrJamesThe3rd/zakati/internal/http/transfer"
)

type Options struct {
	AllowedOrigins []string
	Timeout        time.Duration
}

type Handlers struct {
	Transfers *transfer.Handler
	Zakat     *snapshot.Handler
	Assets    *asset.Handler
	Import    *importcsv.Handler
	Aliases   *alias.Handler
	Rates     *rates.Handler
	Export    *export.Handler
}

func New(h Handlers, verifier *auth.Verifier, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	if opts.Timeout > 0 {
		router.Use(middleware.Timeout(opts.Timeout))
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(verifier.Middleware)

		r.Route("/transfers", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Transfers.Routes(r)
		})

		r.Group(h.Zakat.Routes)
		r.Group(h.Assets.Routes)

		r.Route("/import", h.Import.Routes)

		r.Route("/aliases", func(r chi.Router) {
			h.Aliases.Routes(r)
		})

		r.Route("/rates", h.Rates.Routes)

		r.Route("/export", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			h.Export.Routes(r)
		})
	})

	return router
}
