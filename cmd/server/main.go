package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bearer-auth/internal/auth"
	"bearer-auth/internal/config"
	"bearer-auth/internal/domain"
	apphttp "bearer-auth/internal/http"
	"bearer-auth/internal/repository/sqlite"
	"bearer-auth/internal/security"
	"bearer-auth/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	} else {
		logger.Warnf("unknown log level %q, using info", cfg.Log.Level)
	}
	logger.Debugf("config: %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := sqlite.Ping(ctx, db); err != nil {
		logger.Fatalf("database: %v", err)
	}

	userRepo := sqlite.NewUserRepository(db)
	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}

	tokens, err := security.NewTokenService(security.TokenConfig{
		Secret: []byte(cfg.Auth.SecretKey),
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.TokenTTL(),
	})
	if err != nil {
		logger.Fatalf("setup token service: %v", err)
	}

	authService := service.NewAuthService(userRepo, tokens)
	if err := bootstrapAdmin(ctx, authService, cfg, logger); err != nil {
		logger.Fatalf("bootstrap admin: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(authService, auth.NewGate(tokens), tokens, logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("listening on %s (issuer %s, token ttl %s)", cfg.Server.Addr, cfg.Auth.Issuer, cfg.TokenTTL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}

// bootstrapAdmin makes sure the configured administrator exists and holds the admin role.
func bootstrapAdmin(ctx context.Context, users service.AuthService, cfg config.Config, logger *logrus.Logger) error {
	if cfg.Auth.AdminUsername == "" {
		return nil
	}

	_, err := users.Register(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
	switch {
	case err == nil:
		logger.Infof("created admin user %s", cfg.Auth.AdminUsername)
	case domain.KindOf(err) == domain.KindUserAlreadyExists:
	default:
		return err
	}

	return users.GrantRole(ctx, cfg.Auth.AdminUsername, domain.RoleAdmin)
}
