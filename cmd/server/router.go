package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dhbtk/webtarot/internal/api"
	apiMiddleware "github.com/dhbtk/webtarot/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware. Every /api/v1 route runs behind the identity middleware:
// even anonymous visitors must present their self-assigned UUID.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)
	r.Use(apiMiddleware.LocaleMiddleware)

	interpretationHandler := api.NewInterpretationHandler(app.interpretationService)
	userHandler := api.NewUserHandler(app.userService)
	notifyHandler := api.NewNotifyHandler(app.interpretationService, app.broadcaster, app.logger)
	identityMiddleware := apiMiddleware.NewIdentityMiddleware(app.userStore, app.jwtService)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(identityMiddleware.Identify)

		r.Post("/reading", interpretationHandler.CreateReading)
		r.Post("/interpretation", interpretationHandler.CreateInterpretation)
		// The history route must be registered before the id route so
		// "history" is not parsed as an interpretation id.
		r.Get("/interpretation/history", interpretationHandler.History)
		r.Get("/interpretation/notify", notifyHandler.Notify)
		r.Get("/interpretation/{id}", interpretationHandler.GetInterpretation)
		r.Delete("/interpretation/{id}", interpretationHandler.DeleteInterpretation)
		r.Get("/stats", interpretationHandler.Stats)

		r.Post("/user", userHandler.Register)
		r.Post("/login", userHandler.Login)
		r.Get("/user", userHandler.GetUser)
		r.Patch("/user", userHandler.UpdateUser)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
