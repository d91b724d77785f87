// @title                       mietGram API
// @version                     1.0
// @description                 Campus social network for MIET Jammu: identities, feed, likes, follows and chat.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mietgram/campus-api/internal/api"
	"github.com/mietgram/campus-api/internal/api/handler"
	"github.com/mietgram/campus-api/internal/core/ports"
	"github.com/mietgram/campus-api/internal/core/service"
	"github.com/mietgram/campus-api/internal/infrastructure/caption"
	mongodb "github.com/mietgram/campus-api/internal/infrastructure/db/mongo"
	redisdb "github.com/mietgram/campus-api/internal/infrastructure/db/redis"
	"github.com/mietgram/campus-api/internal/infrastructure/mail"
	"github.com/mietgram/campus-api/internal/infrastructure/queue"
	"github.com/mietgram/campus-api/internal/pkg/config"
	"github.com/mietgram/campus-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "mietgram-api",
	})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Timeout:  cfg.StoreTimeout,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	users := mongodb.NewIdentityRepository(db, cfg.StoreTimeout)
	posts := mongodb.NewPostRepository(db, cfg.StoreTimeout)
	if err := users.EnsureIndexes(ctx); err != nil {
		return err
	}
	if err := posts.EnsureIndexes(ctx); err != nil {
		return err
	}

	// --- Background mail delivery ---
	mailer := mail.New(cfg.IsProduction(), cfg.Mail.SendGridAPIKey, cfg.Mail.From, cfg.Mail.ClientURL, logger.For("mail"))
	dispatcher := queue.NewMailDispatcher(cfg.Mail.Workers, mailer, logger.For("mail"))
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher.Start(workerCtx)
	defer func() {
		stopWorkers()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens := service.NewJWTIssuer(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(users, tokens, redisdb.NewVerificationStore(rdb), dispatcher, logger.For("auth"))
	postService := service.NewPostService(posts, users, cfg.FeedMaxLimit, logger.For("posts"))
	socialService := service.NewSocialService(users, logger.For("social"))

	var generator ports.CaptionGenerator
	gemini, err := caption.NewGemini(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		log.Warn().Err(err).Msg("caption generator unavailable, using fallback captions")
	} else if gemini != nil {
		generator = gemini
	}
	captionService := service.NewCaptionService(generator, logger.For("captions"))

	e := api.NewRouter(api.Deps{
		Log:      log,
		Tokens:   tokens,
		Users:    users,
		Auth:     authService,
		Posts:    postService,
		Social:   socialService,
		Captions: captionService,
		Relay:    redisdb.NewChatRelay(rdb, logger.For("chat")),
		Checks: map[string]handler.DependencyCheck{
			"mongodb": mongodb.Check(mongoClient),
			"redis":   redisdb.Check(rdb),
		},
		Limit: api.RateLimit{PerSecond: cfg.RateLimit.PerSecond, Burst: cfg.RateLimit.Burst},
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("mietGram API listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
