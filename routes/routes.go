package routes

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/Dosada05/esports-bracket/handlers"
	"github.com/Dosada05/esports-bracket/middleware"
)

type Config struct {
	Logger         *slog.Logger
	JWTSecret      []byte
	AllowedOrigins []string
	HealthChecks   map[string]handlers.Checker
}

func SetupRoutes(
	router *chi.Mux,
	cfg Config,
	authHandler *handlers.AuthHandler,
	tournamentHandler *handlers.TournamentHandler,
	teamHandler *handlers.TeamHandler,
	matchHandler *handlers.MatchHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Pagination", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.NotFound(cantHandle)
	router.MethodNotAllowed(cantHandle)

	router.Get("/healthz", handlers.Health(cfg.Logger, cfg.HealthChecks))
	router.Get("/openapi.json", handlers.OpenAPI())
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.json")))

	authenticate := middleware.Authenticate(cfg.JWTSecret)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.Login)
			r.With(authenticate).Get("/me", authHandler.Me)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/index", tournamentHandler.Index)
			r.Get("/view/{tournamentID}", tournamentHandler.View)
			r.Get("/bracket/{tournamentID}", tournamentHandler.Bracket)
			r.Get("/teams", teamHandler.List)
			r.Get("/matches", matchHandler.List)
			r.Post("/register-team", teamHandler.Register)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)

				r.Post("/create", tournamentHandler.Create)
				r.Post("/open-registration", tournamentHandler.OpenRegistration)
				r.Post("/start", tournamentHandler.Start)
				r.Post("/define-winner", matchHandler.DefineWinner)
				r.Post("/rebuild-bracket", tournamentHandler.RebuildBracket)
			})
		})
	})
}

// cantHandle answers every unmatched method or path with 404.
func cantHandle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": fmt.Sprintf("Can't %s %s", r.Method, r.URL.RequestURI()),
	})
}
