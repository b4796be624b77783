package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/studybridge-backend/internal/db"
	apphttp "github.com/yungbote/studybridge-backend/internal/http"
	"github.com/yungbote/studybridge-backend/internal/observability"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
)

type App struct {
	cfg      *Config
	log      *logger.Logger
	engine   *gin.Engine
	shutdown func(context.Context) error
}

func New(log *logger.Logger) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	shutdownTracing, tracingEnabled, err := observability.Init(context.Background(), log)
	if err != nil {
		return nil, err
	}

	gdb, err := db.Connect(cfg.DatabaseURL, log)
	if err != nil {
		return nil, err
	}

	clients, err := NewClients(cfg, log)
	if err != nil {
		return nil, err
	}
	r := NewRepos(gdb, log)
	s := NewServices(cfg, gdb, clients, r, log)
	h := NewHandlers(s)

	engine := apphttp.NewRouter(apphttp.RouterConfig{
		Mode:            cfg.Mode,
		AllowedOrigins:  cfg.AllowedOrigins,
		TracingEnabled:  tracingEnabled,
		Auth:            s.Auth,
		Log:             log,
		Health:          h.Health,
		Users:           h.Users,
		Chat:            h.Chat,
		Flashcards:      h.Flashcards,
		Quizzes:         h.Quizzes,
		Stats:           h.Stats,
		KnowledgeSource: h.KnowledgeSource,
	})

	return &App{
		cfg:      cfg,
		log:      log,
		engine:   engine,
		shutdown: shutdownTracing,
	}, nil
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests.
func (a *App) Run() error {
	srv := &http.Server{
		Addr:    ":" + a.cfg.Port,
		Handler: a.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", "port", a.cfg.Port, "mode", a.cfg.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.log.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	return a.shutdown(ctx)
}
