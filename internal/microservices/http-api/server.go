// Package httpapi assembles the REST API: repositories, services, handlers
// and middleware mounted on one gin engine under /api/v1.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"reviewhub/internal/config"
	"reviewhub/internal/mailer"
	"reviewhub/internal/microservices/http-api/handler"
	"reviewhub/internal/microservices/http-api/middleware"
	"reviewhub/internal/microservices/http-api/repository"
	"reviewhub/internal/microservices/http-api/service"
	authkeys "reviewhub/internal/middleware/auth"
	"reviewhub/pkg/validator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the collaborators the API needs. Redis may be nil.
type Deps struct {
	Config *config.Config
	DB     *gorm.DB
	Redis  *redis.Client
	Mailer mailer.Sender
	Keys   authkeys.Keys
	Logger *slog.Logger
}

type Server struct {
	engine *gin.Engine
	db     *gorm.DB
}

func NewServer(d Deps) *Server {
	validator.Register()

	userRepo := repository.NewUserRepository(d.DB)
	genreRepo := repository.NewGenreRepo(d.DB)
	categoryRepo := repository.NewCategoryRepo(d.DB)
	titleRepo := repository.NewTitleRepo(d.DB)
	reviewRepo := repository.NewReviewRepository(d.DB)
	commentRepo := repository.NewCommentRepository(d.DB)

	authSvc := service.NewAuthService(userRepo, d.Mailer, d.Keys, d.Config, d.Logger)
	userSvc := service.NewUserService(userRepo)
	genreSvc := service.NewGenreService(genreRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	titleSvc := service.NewTitleService(titleRepo, genreRepo, categoryRepo)
	reviewSvc := service.NewReviewService(reviewRepo, titleRepo)
	commentSvc := service.NewCommentService(commentRepo, reviewRepo, titleRepo)

	router := gin.New()
	router.RedirectTrailingSlash = false
	setupCORS(router, d.Config.CORSOrigins)
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(d.Logger))

	if d.Config.PrometheusEnabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		router.Use(middleware.NewMetrics(reg).Handler())
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	s := &Server{engine: router, db: d.DB}
	router.GET("/health", s.health)

	api := router.Group("/api/v1")
	api.Use(middleware.Authenticate(authSvc, userRepo))

	throttle := middleware.Throttle(d.Redis, "signup", d.Config.SignupRateLimit, d.Config.SignupRateWindow, d.Logger)
	handler.NewAuthHandler(authSvc).RegisterRoutes(api.Group("/auth"), throttle)
	handler.NewUserHandler(userSvc).RegisterRoutes(api.Group("/users"))
	handler.NewCatalogHandler(genreSvc).RegisterRoutes(api.Group("/genres"))
	handler.NewCatalogHandler(categorySvc).RegisterRoutes(api.Group("/categories"))

	handler.NewTitleHandler(titleSvc).RegisterRoutes(api.Group("/titles"))
	title := api.Group("/titles/:title_id")
	handler.NewReviewHandler(reviewSvc).RegisterRoutes(title)
	handler.NewCommentHandler(commentSvc).RegisterRoutes(title)

	return s
}

// Handler returns the API with optional trailing slashes: /titles/ and
// /titles reach the same route.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := r.URL.Path; len(p) > 1 && strings.HasSuffix(p, "/") {
			r.URL.Path = strings.TrimRight(p, "/")
			if r.URL.RawPath != "" {
				r.URL.RawPath = strings.TrimRight(r.URL.RawPath, "/")
			}
		}
		s.engine.ServeHTTP(w, r)
	})
}

func (s *Server) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "database": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func setupCORS(router *gin.Engine, origins []string) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
