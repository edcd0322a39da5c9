package httpapi

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/authgate/internal/logging"
	"github.com/dmitrijs2005/authgate/internal/server/gate"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig carries the dependencies of NewRouter.
type RouterConfig struct {
	Auth        AuthService
	Users       UserService
	Gate        *gate.Gate
	Logger      logging.Logger
	CORSOrigins []string
}

// NewRouter builds the HTTP handler. Everything behind the CORS layer passes
// through the gate; which routes are public is decided by its allow-list.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger.With("module", "http")
	resolver := NewErrorResolver(logger)
	h := &handler{auth: cfg.Auth, users: cfg.Users, resolver: resolver}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(cfg.Gate.Middleware(resolver))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, Response{Code: http.StatusNotFound, Message: "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, Response{Code: http.StatusMethodNotAllowed, Message: "method not allowed"})
	})

	r.Get("/healthz", health)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(a chi.Router) {
			a.Post("/sign-in-email", h.signInEmail)
			a.Post("/sign-in-google", h.signInGoogle)
			a.Post("/sign-up-email", h.signUpEmail)
			a.Post("/sign-up-google", h.signUpGoogle)
			a.Post("/refresh-token", h.refreshToken)
			a.Post("/sign-out", h.signOut)
		})

		api.Route("/users", func(u chi.Router) {
			u.Get("/", h.listUsers)
			u.Get("/me", h.me)
			u.Get("/me/avatar", h.avatar)
			u.Post("/me/avatar", h.avatarUpload)
		})
	})

	return r
}

func accessLog(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info(r.Context(), "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
