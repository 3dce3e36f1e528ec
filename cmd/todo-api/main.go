package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	myPostgresRepo "github.com/aminkhaleghi1994/todo-app/internal/adapters/db/postgres"
	myRedisRepo "github.com/aminkhaleghi1994/todo-app/internal/adapters/db/redis"
	myHttp "github.com/aminkhaleghi1994/todo-app/internal/adapters/transport/http"
	"github.com/aminkhaleghi1994/todo-app/internal/app/auth/jwt"
	"github.com/aminkhaleghi1994/todo-app/internal/app/auth/password"
	appsvc "github.com/aminkhaleghi1994/todo-app/internal/app/auth/service"
	"github.com/aminkhaleghi1994/todo-app/internal/domain/auth/repo"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/config"
	lg "github.com/aminkhaleghi1994/todo-app/internal/infra/log"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/migrate"
	"github.com/aminkhaleghi1994/todo-app/internal/infra/server"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("info").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	var tokenRepo repo.TokenRepo
	if cfg.RedisAddress != "" {
		redisCli := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer redisCli.Close()
		tokenRepo = myRedisRepo.NewRedisTokenRepo(redisCli)
		zapLog.Info("token denylist enabled", zap.String("redis", cfg.RedisAddress))
	}

	jwtUtil, err := jwt.NewJWTUtil(cfg)
	if err != nil {
		zapLog.Fatal("failed to init JWT util", zap.Error(err))
	}
	hasher, err := password.New(cfg)
	if err != nil {
		zapLog.Fatal("failed to init password hasher", zap.Error(err))
	}

	userRepo := myPostgresRepo.NewPostgresUserRepo(db)
	svc, err := appsvc.New(userRepo, tokenRepo, jwtUtil, hasher, validator.New(), zapLog)
	if err != nil {
		zapLog.Fatal("failed to init auth service", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           myHttp.NewRouter(cfg, svc, zapLog),
		ReadHeaderTimeout: 10 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(rootCtx)

	if cfg.GRPCAddress != "" {
		g.Go(func() error {
			return server.StartGRPCServer(ctx, cfg, sqlDB.PingContext, zapLog)
		})
	}

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddress))
		var err error
		if cfg.HTTPSCertFile != "" && cfg.HTTPSKeyFile != "" {
			err = srv.ListenAndServeTLS(cfg.HTTPSCertFile, cfg.HTTPSKeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		zapLog.Info("shutdown signal received")

		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctxShutdown)
	})

	if err := g.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}
