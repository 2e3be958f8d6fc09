package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/patchdoc/patchdoc/handlers"
	"github.com/patchdoc/patchdoc/internal/auth"
	"github.com/patchdoc/patchdoc/internal/config"
	"github.com/patchdoc/patchdoc/internal/database"
	"github.com/patchdoc/patchdoc/internal/registry"
	"github.com/patchdoc/patchdoc/internal/storage"
	"github.com/patchdoc/patchdoc/pkg/logger"
	"github.com/patchdoc/patchdoc/pkg/metrics"
	"github.com/patchdoc/patchdoc/pkg/middleware"
)

func main() {
	// logging is controlled with LOG_LEVEL env: debug|info|warn|error|fatal
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v auth=%v",
		cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "", cfg.Auth.Enabled)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	// Lightweight CORS for dev/test; production should use a stricter policy.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Redis is optional; it backs the distributed rate limiter.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warnf("redis ping failed (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to redis %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Mongo is optional; it backs document snapshots for save/restore.
	var snapRepo registry.SnapshotRepo
	if cfg.MongoDB.URI != "" {
		client, err := database.ConnectMongo(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.Timeout)
		if err != nil {
			logger.Fatalf("mongo: %v", err)
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		col := client.Database(cfg.MongoDB.Database).Collection("documents")
		snapRepo = registry.NewMongoSnapshotRepo(col)
		logger.Infof("connected to mongodb, database %q", cfg.MongoDB.Database)
	}

	svc := registry.NewService(snapRepo)

	// MinIO is optional; it backs the snapshot archive endpoint.
	var archive *storage.SnapshotStore
	if cfg.MinIO.Endpoint != "" {
		archive, err = storage.NewSnapshotStore(cfg.MinIO)
		if err != nil {
			logger.Fatalf("minio: %v", err)
		}
		logger.Infof("snapshot archive enabled, bucket %q", cfg.MinIO.Bucket)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})
	r.GET("/ready", func(c *gin.Context) {
		deps := gin.H{
			"snapshots": snapRepo != nil,
			"archive":   archive != nil,
			"redis":     redisClient != nil,
		}
		// the in-memory registry is always available
		c.JSON(http.StatusOK, gin.H{"ready": true, "deps": deps})
	})

	api := r.Group("")
	if cfg.Auth.Enabled {
		if cfg.Auth.Secret == "" {
			logger.Fatalf("AUTH_ENABLED is set but AUTH_SECRET is empty")
		}
		verifier := auth.NewVerifier(cfg.Auth.Secret)
		api.Use(middleware.AuthMiddleware(middleware.VerifierFunc(
			func(ctx context.Context, raw string) (middleware.Token, error) {
				return verifier.Verify(ctx, raw)
			})))
		// dev-only mint endpoint so agents can obtain a source identity
		if cfg.Server.Environment == "development" {
			r.POST("/api/tokens", func(c *gin.Context) {
				var req struct {
					Subject string `json:"subject"`
				}
				if err := c.ShouldBindJSON(&req); err != nil || req.Subject == "" {
					c.JSON(http.StatusBadRequest, gin.H{"error": "subject is required"})
					return
				}
				tok, err := auth.Mint(cfg.Auth.Secret, req.Subject, cfg.Auth.TokenTTL)
				if err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusOK, gin.H{"token": tok})
			})
		}
	}
	handlers.RegisterDocumentRoutes(api, svc, archive)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	logger.Infof("listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("server: %v", err)
	}
}
