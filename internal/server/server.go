package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sendrec/galleryplayer/internal/auth"
	"github.com/sendrec/galleryplayer/internal/database"
	"github.com/sendrec/galleryplayer/internal/gallery"
	"github.com/sendrec/galleryplayer/internal/httputil"
	"github.com/sendrec/galleryplayer/internal/ratelimit"
	"github.com/sendrec/galleryplayer/internal/validate"
)

const defaultBaseURL = "http://localhost:8080"

type Pinger interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB               database.DBTX
	Pinger           Pinger
	Storage          gallery.ObjectStorage
	Countries        gallery.CountryResolver
	Events           gallery.EventNotifier
	Videos           gallery.VideoLookup
	JWTSecret        string
	BaseURL          string
	S3PublicEndpoint string
	FrameAncestors   string
}

type Server struct {
	router         chi.Router
	pinger         Pinger
	jwtSecret      string
	galleryHandler *gallery.Handler
}

// New builds the router. Rate limiter cleanup runs until ctx is cancelled.
// Gallery routes are only mounted when a database is configured.
func New(ctx context.Context, cfg Config) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(slogMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders(SecurityConfig{
		BaseURL:         cfg.BaseURL,
		StorageEndpoint: cfg.S3PublicEndpoint,
	}))

	s := &Server{router: r, pinger: cfg.Pinger, jwtSecret: cfg.JWTSecret}

	if cfg.DB != nil {
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultBaseURL
		}
		s.galleryHandler = gallery.NewHandler(cfg.DB, cfg.Storage, baseURL)
		if cfg.Countries != nil {
			s.galleryHandler.SetCountryResolver(cfg.Countries)
		}
		if cfg.Events != nil {
			s.galleryHandler.SetEventNotifier(cfg.Events)
		}
		if cfg.Videos != nil {
			s.galleryHandler.SetVideoLookup(cfg.Videos)
		}
		s.galleryHandler.SetFrameAncestors(cfg.FrameAncestors)
	}

	s.routes(ctx)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes(ctx context.Context) {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/limits", s.handleLimits)

	if s.galleryHandler == nil {
		return
	}
	h := s.galleryHandler

	ownerLimiter := ratelimit.NewLimiter(ctx, 2, 10)
	s.router.Route("/api/galleries", func(r chi.Router) {
		r.Use(ownerLimiter.Middleware)
		r.Use(auth.Middleware(s.jwtSecret))
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Delete("/{id}", h.Delete)
		r.Get("/{id}/stats", h.Stats)
		r.Put("/{id}/webhook", h.SetWebhook)
		r.Post("/{id}/items", h.AddItem)
		r.Post("/{id}/items/{itemId}/complete", h.CompleteItem)
		r.Delete("/{id}/items/{itemId}", h.DeleteItem)
	})

	publicLimiter := ratelimit.NewLimiter(ctx, 5, 20)
	s.router.Group(func(r chi.Router) {
		r.Use(publicLimiter.Middleware)
		r.Get("/api/g/{shareToken}", h.Shared)
		r.Post("/api/g/{shareToken}/items/{itemId}/views", h.RecordView)
		r.Get("/g/{shareToken}", h.SharePage)
		r.Post("/g/{shareToken}", h.SharePage)
		r.Get("/api/resolve", h.Resolve)
		r.Get("/api/oembed", h.OEmbed)
	})

	playerLimiter := ratelimit.NewLimiter(ctx, 10, 40)
	s.router.Group(func(r chi.Router) {
		r.Use(playerLimiter.Middleware)
		r.Get("/player/youtube/{videoID}", h.YouTubePlayer)
		r.Get("/player/facebook", h.FacebookPlayer)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy","error":"database unreachable"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, validate.FieldLimits())
}
