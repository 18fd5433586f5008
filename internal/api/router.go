package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/kdimtricp/fairyland/internal/auth"
)

func NewRouter(app *App) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(app.Logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(logRequest))
	r.Use(middleware.Recoverer)

	r.Get("/ping", PingHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", app.LoginHandler)
		r.With(app.RequireAuth).Get("/auth/verify", app.VerifyHandler)

		r.Get("/videos", app.ListVideosHandler)
		r.Get("/videos/file/{filename}", app.GetVideoHandler)
		r.Post("/videos/file/{filename}/like", app.LikeHandler)
		r.Post("/videos/file/{filename}/view", app.ViewHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.RequireAuth, RequireRole(auth.RoleAdmin))

			r.Post("/videos", app.CreateVideoHandler)
			r.Put("/videos/file/{filename}", app.UpdateVideoHandler)
			r.Delete("/videos/file/{filename}", app.DeleteVideoHandler)
			r.Post("/admin/resync", app.ResyncHandler)
		})
	})

	r.Get("/videos/{filename}", app.StreamVideoHandler)

	if app.PublicDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(app.PublicDir)))
	}

	return r
}

func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			hlog.FromRequest(r).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}

func logRequest(r *http.Request, status, size int, duration time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("size", size).
		Dur("duration", duration).
		Msg("request")
}
