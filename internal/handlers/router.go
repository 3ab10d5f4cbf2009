// internal/handlers/router.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"go_4_interview_prep/internal/config"
	"go_4_interview_prep/internal/middleware"
	"go_4_interview_prep/internal/service"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

// RouterDeps はルーター構築に必要な依存
type RouterDeps struct {
	Config              *config.Config
	Logger              *slog.Logger
	DB                  *gorm.DB
	Catalog             service.TrackCatalog
	ProgressService     service.ProgressService
	SubscriptionService service.SubscriptionService
	// DefaultLocation は X-Timezone が無いリクエストのタイムゾーン
	DefaultLocation *time.Location
}

func NewRouter(deps RouterDeps) http.Handler {
	contentHandler := NewContentHandler(deps.Catalog)
	progressHandler := NewProgressHandler(deps.ProgressService)
	subscriptionHandler := NewSubscriptionHandler(deps.SubscriptionService)
	healthHandler := NewHealthHandler(deps.DB)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.LoggingMiddleware(deps.Logger))

	corsOptions := cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   deps.Config.CORS.AllowedMethods,
		AllowedHeaders:   deps.Config.CORS.AllowedHeaders,
		ExposedHeaders:   deps.Config.CORS.ExposedHeaders,
		AllowCredentials: deps.Config.CORS.AllowCredentials,
		MaxAge:           deps.Config.CORS.MaxAge,
		Debug:            false,
	}
	r.Use(cors.New(corsOptions).Handler)

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	r.Route("/api/v1", func(r chi.Router) {
		// --- Public routes ---
		r.Get("/tracks", contentHandler.ListTracks)
		r.Get("/tracks/{company}", contentHandler.GetTrack)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/vapid-public-key", subscriptionHandler.GetPublicKey)
			r.Post("/subscriptions", subscriptionHandler.CreateSubscription)
			r.Get("/subscriptions/lookup", subscriptionHandler.LookupSubscription)
			r.Patch("/subscriptions/{id}", subscriptionHandler.UpdateSubscription)
			r.Delete("/subscriptions/{id}", subscriptionHandler.DeleteSubscription)
		})

		// --- Protected routes (require user ID) ---
		r.Group(func(r chi.Router) {
			if deps.Config.Auth.Enabled {
				deps.Logger.Info("Applying JWT authentication middleware")
				r.Use(middleware.JWTAuthMiddleware(deps.Config))
			} else {
				deps.Logger.Warn("Authentication disabled, using X-User-ID header (development only)")
				r.Use(middleware.DevUserContextMiddleware)
			}
			r.Use(middleware.TimezoneMiddleware(deps.DefaultLocation))

			r.Get("/stats", progressHandler.GetStats)

			r.Route("/progress", func(r chi.Router) {
				r.Get("/", progressHandler.GetOverview)
				r.Get("/{company}", progressHandler.GetTrackProgress)
				r.Delete("/{company}", progressHandler.ResetTrack)
				r.Post("/{company}/start", progressHandler.StartTrack)

				r.Route("/{company}/topics/{topic_id}", func(r chi.Router) {
					r.Post("/tasks/{task_index}/toggle", progressHandler.ToggleTask)
					r.Post("/complete", progressHandler.CompleteTopic)
					r.Put("/notes", progressHandler.SaveNotes)
					r.Put("/quiz-score", progressHandler.SaveQuizScore)
				})
			})
		})
	})

	r.Get("/health", healthHandler.Health)

	return r
}
