// Command server runs the portfolio backend HTTP API.
//
// Startup order: .env, configuration, logging, tracing, SQLite (with
// migrations), the rate-limit store (Redis when REDIS_URL is set and
// reachable, in-process otherwise), OIDC discovery, the generator and the
// PDF renderer. SIGINT/SIGTERM trigger a graceful shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/portfolio-backend/internal/auth"
	"github.com/tbourn/portfolio-backend/internal/config"
	httpapi "github.com/tbourn/portfolio-backend/internal/http"
	"github.com/tbourn/portfolio-backend/internal/llm"
	"github.com/tbourn/portfolio-backend/internal/observability"
	"github.com/tbourn/portfolio-backend/internal/ratelimit"
	"github.com/tbourn/portfolio-backend/internal/render"
	"github.com/tbourn/portfolio-backend/internal/repo"
	"github.com/tbourn/portfolio-backend/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Warn().Err(err).Msg("could not read .env")
	}
	cfg := config.MustLoad()
	sysutil.ConfigureLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty, cfg.OTEL.ServiceName)
	ver := sysutil.FirstNonEmpty(os.Getenv("APP_VERSION"), version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, ver)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	idle := 2 * max(cfg.Trust.AIQuota.Window, cfg.Trust.APIQuota.Window)
	limiter, closeStore := newLimiter(ctx, cfg.RedisURL, idle)
	defer closeStore()

	deps := httpapi.Deps{DB: db, Limiter: limiter}

	if cfg.OIDC.Enabled() {
		v, err := auth.NewOIDCVerifier(ctx, cfg.OIDC)
		if err != nil {
			log.Fatal().Err(err).Msg("oidc discovery failed")
		}
		deps.Verifier = v
	} else {
		log.Warn().Msg("OIDC not configured; admin routes disabled")
	}

	if g, err := llm.NewGemini(cfg.LLM); err == nil {
		deps.Generator = g
	} else {
		log.Warn().Err(err).Msg("CV customization disabled")
	}

	if rr := render.NewGotenberg(cfg.Renderer); rr != nil {
		deps.Renderer = rr
	} else {
		log.Warn().Msg("RENDERER_URL not set; PDF export disabled")
	}

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, cfg, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", ver).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := shutdownOTel(shCtx); err != nil {
		log.Error().Err(err).Msg("otel shutdown")
	}
	if err := repo.Close(db); err != nil {
		log.Error().Err(err).Msg("db close")
	}
}

// newLimiter builds the rate limiter. A reachable Redis at redisURL shares
// quotas across instances; otherwise windows live in this process. The
// in-process store is swept in the background either way, since it is also
// Redis's fallback. Windows idle for longer than idle are dropped.
func newLimiter(ctx context.Context, redisURL string, idle time.Duration) (*ratelimit.Limiter, func()) {
	mem := ratelimit.NewMemoryStore()
	go mem.RunJanitor(ctx, time.Minute, idle)

	if redisURL == "" {
		return ratelimit.New(mem), func() {}
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("invalid REDIS_URL; using in-memory rate limits")
		return ratelimit.New(mem), func() {}
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis unreachable; using in-memory rate limits")
		_ = client.Close()
		return ratelimit.New(mem), func() {}
	}
	log.Info().Str("addr", opts.Addr).Msg("rate limits shared via redis")
	store := ratelimit.NewRedisStore(client, ratelimit.RedisOptions{Fallback: mem})
	return ratelimit.New(store), func() { _ = client.Close() }
}
