package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/deskbridge/zoom-relay/internal/config"
	"github.com/deskbridge/zoom-relay/internal/handlers"
	"github.com/deskbridge/zoom-relay/internal/haptik"
	"github.com/deskbridge/zoom-relay/internal/logger"
	"github.com/deskbridge/zoom-relay/internal/relay"
	"github.com/deskbridge/zoom-relay/internal/search"
	"github.com/deskbridge/zoom-relay/internal/server"
	"github.com/deskbridge/zoom-relay/internal/store"
	"github.com/deskbridge/zoom-relay/internal/ticket"
	"github.com/deskbridge/zoom-relay/internal/translate"
	"github.com/deskbridge/zoom-relay/internal/zoom"
)

func runServe(configPath string) {
	fx.New(
		fx.Provide(
			func() (config.Config, error) { return provideConfig(configPath) },
			provideLogger,
			provideDBPool,
			store.NewService,
			provideAMQPConn,
			provideTicketDispatcher,
			provideZoomClient,
			provideHaptikClient,
			provideSearchClient,
			provideTranslateClient,
			provideRouter,
			handlers.NewPingHandler,
			provideWebhookHandler,
			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig(path string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBPool(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.Postgres.DSN())
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideAMQPConn(lc fx.Lifecycle, log *slog.Logger, cfg config.Config) (*amqp091.Connection, error) {
	conn, err := ticket.Dial(context.Background(), log, cfg.AMQP.URL, cfg.AMQP.RetryAttempts)
	if err != nil {
		return nil, fmt.Errorf("amqp connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { return conn.Close() }})
	return conn, nil
}

func provideTicketDispatcher(log *slog.Logger, conn *amqp091.Connection, cfg config.Config) (*ticket.Dispatcher, error) {
	return ticket.NewDispatcher(log, conn, cfg.AMQP.TicketExchange)
}

func provideZoomClient(log *slog.Logger, cfg config.Config) *zoom.Client {
	return zoom.NewClient(log, cfg.Zoom)
}

func provideHaptikClient(log *slog.Logger, cfg config.Config) *haptik.Client {
	return haptik.NewClient(log, cfg.Haptik)
}

func provideSearchClient(log *slog.Logger, cfg config.Config) *search.Client {
	return search.NewClient(log, cfg.Search)
}

func provideTranslateClient(log *slog.Logger, cfg config.Config) *translate.Client {
	return translate.NewClient(log, cfg.Translation)
}

func provideRouter(log *slog.Logger, st *store.Service, transport *zoom.Client, transcripts *haptik.Client, translator *translate.Client, searcher *search.Client, tickets *ticket.Dispatcher) *relay.Router {
	return relay.NewRouter(log, st, transport, transcripts, translator, searcher, tickets)
}

func provideWebhookHandler(log *slog.Logger, router *relay.Router, cfg config.Config) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, router, cfg.Server.WebhookToken)
}

func provideServer(log *slog.Logger, cfg config.Config, ping *handlers.PingHandler, webhook *handlers.WebhookHandler) *server.Server {
	return server.NewServer(log, cfg.Server.Addr, ping, webhook)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
