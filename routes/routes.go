package routes

import (
	"net/http"

	"profile-service/config"
	"profile-service/handlers"
	"profile-service/logger"
	"profile-service/middleware"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Auth    *handlers.AuthHandler
	Profile *handlers.ProfileHandler
	Post    *handlers.PostHandler
	Health  *handlers.HealthHandler
}

func SetupRoutes(cfg config.Config, log logger.Logger, verifier middleware.TokenVerifier, h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.RequestLogger(log))

	requireToken := middleware.AuthMiddleware(cfg.Auth.HeaderName, verifier)
	public := func(handler middleware.AppHandler) http.Handler {
		return middleware.ErrorHandler(log, handler)
	}
	private := func(handler middleware.AppHandler) http.Handler {
		return requireToken(middleware.ErrorHandler(log, handler))
	}

	router.Handle("/health", public(h.Health.HealthHandler)).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.Handle("/users", public(h.Auth.RegisterHandler)).Methods("POST")
	api.Handle("/auth", public(h.Auth.LoginHandler)).Methods("POST")
	api.Handle("/auth", private(h.Auth.CurrentUserHandler)).Methods("GET")

	api.Handle("/posts", private(h.Post.CreateHandler)).Methods("POST")
	api.Handle("/posts", private(h.Post.ListHandler)).Methods("GET")
	api.Handle("/posts/{id}", private(h.Post.GetHandler)).Methods("GET")
	api.Handle("/posts/{id}", private(h.Post.DeleteHandler)).Methods("DELETE")

	api.Handle("/profile/me", private(h.Profile.MeHandler)).Methods("GET")
	api.Handle("/profile", private(h.Profile.UpsertHandler)).Methods("POST")
	api.Handle("/profile", public(h.Profile.ListHandler)).Methods("GET")
	api.Handle("/profile", private(h.Profile.DeleteHandler)).Methods("DELETE")
	api.Handle("/profile/user/{user_id}", public(h.Profile.ByUserHandler)).Methods("GET")
	api.Handle("/profile/experience", private(h.Profile.AddExperienceHandler)).Methods("PUT")
	api.Handle("/profile/experience/{index}", private(h.Profile.RemoveExperienceHandler)).Methods("DELETE")

	return router
}
