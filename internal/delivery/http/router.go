package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"guildkeeper/internal/delivery/http/controllers"
	"guildkeeper/internal/delivery/http/middleware"
	"guildkeeper/internal/domain"
)

// NewRouter initializes the HTTP router with the ops routes.
// Guild routes are only mounted when verifier is non-nil.
func NewRouter(health *controllers.HealthController, guilds *controllers.GuildController, verifier domain.TokenVerifier, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", health.Health)
	mux.HandleFunc("GET /ready", health.Ready)

	if verifier != nil {
		auth := middleware.RequireAuth(verifier, logger)
		mux.HandleFunc("GET /guilds/{guildID}/scheduler-trigger", auth(guilds.GetSchedulerTrigger))
		mux.HandleFunc("DELETE /guilds/{guildID}/scheduler-trigger", auth(guilds.DeleteSchedulerTrigger))
		mux.HandleFunc("PUT /guilds/{guildID}/welcome-message", auth(guilds.SetWelcomeMessage))
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}

// NewHandler wraps the router with CORS and request logging.
func NewHandler(mux *http.ServeMux, allowedOrigins []string, logger *slog.Logger) http.Handler {
	return middleware.LoggingMiddleware(logger, middleware.CORS(allowedOrigins, mux))
}
