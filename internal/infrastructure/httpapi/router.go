package httpapi

import (
	"net/http"

	"thunder-text-core/internal/infrastructure/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter assembles the chi router with the standard middleware stack and
// every route of the REST surface.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	r.Get("/swagger/doc.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		http.ServeFile(w, r, "./docs/swagger.json")
	})

	// OAuth connect flow
	r.Get("/auth/{provider}", h.BeginAuth)
	r.Get("/auth/{provider}/callback", h.AuthCallback)

	// Shopify webhooks
	r.Post("/webhooks/shopify", h.ShopifyWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Get("/connections", h.ListConnections)
		r.Delete("/connections/{provider}", h.Disconnect)

		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)

		r.Get("/ads-library", h.ListLibraryAds)
		r.Post("/ads-library", h.SaveLibraryAd)
		r.Put("/ads-library/{id}", h.UpdateLibraryAd)
		r.Delete("/ads-library/{id}", h.DeleteLibraryAd)

		r.Get("/best-practices", h.ListBestPractices)
		r.Post("/best-practices", h.CreateBestPractice)
		r.Delete("/best-practices/{id}", h.DeleteBestPractice)

		r.Get("/bhb/insights", h.AggregateInsights)
		r.Get("/bhb/insights/{shop}", h.ShopInsights)

		r.Route("/{provider}", func(r chi.Router) {
			r.Get("/ad-accounts", h.ListAdAccounts)
			r.Get("/campaigns", h.ListCampaigns)
			r.Get("/ad-drafts", h.ListAdDrafts)
			r.Post("/ad-drafts", h.CreateAdDraft)
			r.Get("/ad-drafts/{id}", h.GetAdDraft)
			r.Post("/ad-drafts/{id}/submit", h.SubmitAdDraft)
			r.Post("/ad-drafts/{id}/abandon", h.AbandonAdDraft)
		})
	})

	return r
}
