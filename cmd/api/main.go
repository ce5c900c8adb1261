package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"rollcall/internal/app"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/export"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/relay"
	"rollcall/internal/roster"
	"rollcall/internal/store"
	"rollcall/internal/twilio"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := app.NewLogger(cfg.Env)
	defer logger.Sync()

	if err := runHTTP(cfg, logger); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App, logger *zap.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL, cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)
	if err != nil {
		logger.Warn("db not reachable", zap.Error(err))
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()
	if db != nil && db.Client != nil {
		if err := store.EnsureSchema(context.Background(), db.Client); err != nil {
			logger.Warn("schema bootstrap failed", zap.Error(err))
		}
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisDialTO)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:alert-outcomes")
	}

	repo := roster.NewRepository(db.Client)
	cache := roster.NewRedisCache(redisClient.Client, cfg.RosterCacheTTL)
	svc := roster.NewService(repo, cache, logger)

	sink := twilio.New(cfg.SMSAccountSID, cfg.SMSAuthToken, cfg.SMSFrom, cfg.SMSSkip)
	if cfg.SMSSkip {
		logger.Info("sms sink in skip mode, alerts are stubbed")
	}
	dispatcher := notify.NewDispatcher(sink, notify.Config{
		ToOverride:  cfg.SMSToOverride,
		Institution: cfg.Institution,
	}, q, logger)

	logRepo := notify.NewLogRepository(db.Client)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context())
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Public relay. One caller still posts legacy date/time fields; the handler
	// accepts and ignores them.
	r.POST("/absent", relay.Handler(dispatcher))

	r.POST("/v1/faculty/register", func(c *gin.Context) {
		var req struct {
			FacultyID string `json:"faculty_id" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		tokens, err := auth.Issue(req.FacultyID, auth.RoleFaculty, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}

		_ = repo.SaveRefreshToken(c.Request.Context(), req.FacultyID, tokens.RefreshToken, tokens.RefreshExp)

		c.JSON(http.StatusCreated, gin.H{
			"access_token":  tokens.AccessToken,
			"refresh_token": tokens.RefreshToken,
			"expires_at":    tokens.AccessExp.Unix(),
		})
	})

	authGroup := r.Group("/v1", auth.FacultyAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authGroup.GET("/batches/:batch/sections/:section/students", func(c *gin.Context) {
		recs, err := svc.Roster(c.Request.Context(), c.Param("batch"), c.Param("section"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": recs})
	})

	authGroup.POST("/batches/:batch/sections/:section/students/:id/attendance", func(c *gin.Context) {
		var req struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ref := roster.Ref{
			Batch:     c.Param("batch"),
			Section:   c.Param("section"),
			StudentID: c.Param("id"),
		}
		rec, err := svc.Mark(c.Request.Context(), ref, roster.Status(req.Status))
		switch {
		case errors.Is(err, roster.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		case errors.Is(err, roster.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		case err != nil:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		// The mark is committed at this point. On the absent path a single
		// alert attempt follows; its failure is reported but never undoes
		// the mark.
		alert := ""
		if rec.Status == roster.StatusAbsent {
			alertReq := notify.Request{
				StudentName: rec.Name,
				RollNumber:  rec.RollNumber,
			}
			if rec.Subject != nil {
				alertReq.Subject = *rec.Subject
			}
			if rec.PhoneNumber != nil {
				alertReq.PhoneNumber = *rec.PhoneNumber
			}
			if err := dispatcher.SendAbsenceAlert(c.Request.Context(), alertReq); err != nil {
				alert = "failed: " + err.Error()
			} else {
				alert = "sent"
			}
		}

		resp := gin.H{"student": rec, "marked_by": auth.FacultyID(c)}
		if alert != "" {
			resp["alert"] = alert
		}
		c.JSON(http.StatusOK, resp)
	})

	// Path-addressed lookup mirroring the document store contract.
	authGroup.GET("/students/*path", func(c *gin.Context) {
		ref, err := roster.ParsePath(strings.TrimPrefix(c.Param("path"), "/"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := svc.Get(c.Request.Context(), ref)
		if errors.Is(err, roster.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "student not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"student": rec})
	})

	authGroup.GET("/batches/:batch/sections/:section/export", func(c *gin.Context) {
		recs, err := svc.Roster(c.Request.Context(), c.Param("batch"), c.Param("section"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		data, err := export.Roster(recs)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
		c.Data(http.StatusOK, export.ContentType, data)
	})

	authGroup.GET("/notifications", func(c *gin.Context) {
		limit := 50
		if v := c.Query("limit"); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				limit = parsed
			}
		}
		outs, err := logRepo.Recent(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": outs})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server forced shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
