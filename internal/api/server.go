package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"cinebook/internal/cache"
	"cinebook/internal/config"
	"cinebook/internal/external"
	"cinebook/internal/handlers"
	"cinebook/internal/messaging"
	"cinebook/internal/metrics"
	"cinebook/internal/middleware"
	"cinebook/internal/news"
	"cinebook/internal/repository"
	"cinebook/internal/service"
	"cinebook/internal/session"
)

// Server представляет HTTP сервер приложения
type Server struct {
	router   *gin.Engine
	config   *config.Config
	redis    *redis.Client
	nats     *messaging.NATSClient
	metrics  *metrics.Metrics
	sessions *session.Manager
	services *service.Services
}

// NewServer подключается к Redis и NATS и создает сервер. NATS is optional:
// without it session events are only logged and counted.
func NewServer(cfg *config.Config) (*Server, error) {
	rdb, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		return nil, err
	}

	var publisher messaging.AsyncPublisher
	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		slog.Warn("NATS Streaming unavailable, session events will not be published", "error", err)
		natsClient = nil
	} else {
		publisher = natsClient
	}

	s, err := New(cfg, rdb, publisher)
	if err != nil {
		rdb.Close()
		if natsClient != nil {
			natsClient.Close()
		}
		return nil, err
	}
	s.nats = natsClient
	return s, nil
}

// New builds the server on an existing Redis client. publisher may be nil.
func New(cfg *config.Config, rdb *redis.Client, publisher messaging.AsyncPublisher) (*Server, error) {
	gin.SetMode(cfg.GinMode)

	m := metrics.New()
	client := external.NewMovieAPIClient(cfg.Upstream, m)
	repos := repository.NewRepositories(rdb, cfg.VisitTTL)

	notifier := session.NewNotifier()
	notifier.Subscribe(session.LogSubscriber())
	notifier.Subscribe(m)
	if publisher != nil {
		notifier.Subscribe(messaging.NewSessionEventPublisher(publisher))
	}
	sessions := session.NewManager(cfg.Session, repos.Sessions, repos.Visits, notifier)

	feed, err := news.Load(cfg.NewsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load news feed: %w", err)
	}

	catalogCache := cache.NewCatalogCache(rdb, cfg.CatalogTTL, m)
	services := service.NewServices(client, repos, sessions, catalogCache, feed)

	authz, err := middleware.NewAuthorizer()
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics(m))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(middleware.Timeout(cfg.RequestTimeout))

	s := &Server{
		router:   router,
		config:   cfg,
		redis:    rdb,
		metrics:  m,
		sessions: sessions,
		services: services,
	}
	s.setupRoutes(handlers.NewHandlers(services, sessions), authz)

	return s, nil
}

// setupRoutes настраивает все роуты
func (s *Server) setupRoutes(h *handlers.Handlers, authz *middleware.Authorizer) {
	s.router.GET("/health", h.Health)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	app := s.router.Group("")
	app.Use(middleware.Sessions(s.sessions))
	{
		app.GET("/", h.Home)
		app.GET("/list-movie", h.ListMovies)
		app.GET("/cinemas", h.Cinemas)
		app.GET("/news", h.News)
		app.GET("/news/:id", h.NewsArticle)
		app.GET("/movie/:id", h.Movie)

		app.POST("/login", h.Login)
		app.POST("/register", h.Register)
		app.POST("/logout", h.Logout)
		app.GET("/theme", h.GetTheme)
		app.PUT("/theme", h.SetTheme)

		user := app.Group("")
		user.Use(middleware.RequireSession())
		{
			user.GET("/dat-ve/:id", h.StartBooking)
			user.POST("/dat-ve/:id/toggle", h.ToggleSeat)
			user.POST("/dat-ve/:id/submit", h.SubmitBooking)
			user.GET("/profile", h.Profile)
			user.PUT("/profile", h.UpdateProfile)
		}

		app.POST("/admin/login", h.AdminLogin)

		admin := app.Group("/admin")
		admin.Use(middleware.RequireAdmin(authz))
		{
			admin.GET("", h.Dashboard)
			admin.GET("/profile", h.Profile)

			admin.GET("/films", h.AdminFilms)
			admin.POST("/films/addnew", h.CreateFilm)
			admin.GET("/films/edit/:id", h.EditFilm)
			admin.PUT("/films/edit/:id", h.UpdateFilm)
			admin.DELETE("/films/:id", h.DeleteFilm)
			admin.GET("/films/showtime/:id", h.ShowtimeForm)
			admin.POST("/films/showtime/:id", h.CreateShowtime)

			admin.GET("/users", h.AdminUsers)
			admin.POST("/add-user", h.CreateUser)
			admin.GET("/users/edit/:id", h.EditUser)
			admin.PUT("/users/edit/:id", h.UpdateUser)
			admin.DELETE("/users/:id", h.DeleteUser)
		}
	}
}

// Run запускает HTTP сервер
func (s *Server) Run() error {
	return s.router.Run(":" + s.config.Port)
}

// GetRouter возвращает роутер для тестирования
func (s *Server) GetRouter() http.Handler {
	return s.router
}

// Cleanup закрывает соединения
func (s *Server) Cleanup() error {
	if s.nats != nil {
		if err := s.nats.Close(); err != nil {
			slog.Error("Error closing NATS connection", "error", err)
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
			return err
		}
	}

	return nil
}
