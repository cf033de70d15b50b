package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/user/player_radar_go/internal/dataset"
	"github.com/user/player_radar_go/internal/service"
)

// NewRouter builds the HTTP API. Dataset IDs contain a slash and must be
// URL-escaped in paths (EPL%2F24-25). origins lists the allowed CORS origins;
// an empty list allows any origin. imported may be nil when no database is used.
func NewRouter(svc *service.Service, catalog *dataset.Catalog, imported DatasetLister, origins []string) http.Handler {
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: log.Default(), NoColor: true}))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/datasets", ListDatasetsHandler(catalog, imported))
		ar.Get("/datasets/{id}/players", ListPlayersHandler(svc))
		ar.Get("/datasets/{id}/attributes", ListAttributesHandler(svc))
		ar.Get("/groups", ListGroupsHandler(svc))
		ar.Get("/compare", CompareHandler(svc))
		ar.Get("/compare.svg", CompareSVGHandler(svc))
		ar.Get("/compare.png", ComparePNGHandler(svc))
		ar.Get("/overview", OverviewHandler(svc))
	})
	return r
}
