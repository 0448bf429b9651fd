package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/studyflash/internal/api"
	"github.com/vytor/studyflash/internal/auth"
	"github.com/vytor/studyflash/internal/config"
	"github.com/vytor/studyflash/internal/content"
	"github.com/vytor/studyflash/internal/db"
	"github.com/vytor/studyflash/internal/deckedit"
	"github.com/vytor/studyflash/internal/llm"
	"github.com/vytor/studyflash/internal/logger"
	"github.com/vytor/studyflash/internal/proposal"
	"github.com/vytor/studyflash/internal/repository/sqlite"
	"github.com/vytor/studyflash/internal/services"
	"github.com/vytor/studyflash/internal/study"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	log.Info("===========================================")
	log.Info("StudyFlash Server Starting")
	log.Info("===========================================")
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("llm_provider=%s llm_model=%s llm_timeout=%s", cfg.LLMProvider, cfg.LLMModel, cfg.LLMTimeout)
	log.Debug("proposal_store=%s proposal_ttl=%s", cfg.ProposalStore, cfg.ProposalTTL)
	log.Debug("rate_limit_rps=%g rate_limit_burst=%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	log.Debug("chat_history_limit=%d max_upload_mb=%d", cfg.ChatHistoryLimit, cfg.MaxUploadMB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	client, err := newLLMClient(ctx, cfg)
	if err != nil {
		log.Error("failed to create LLM client: %v", err)
		os.Exit(1)
	}

	store, checks := newProposalStore(cfg)
	defer func() {
		log.Debug("closing proposal store")
		if err := store.Close(); err != nil {
			log.Warn("proposal store close error: %v", err)
		}
	}()

	verifier, err := auth.NewVerifier(cfg.JWTSecret, cfg.JWTPublicKey, cfg.JWTIssuer)
	if err != nil {
		log.Error("failed to configure auth: %v", err)
		os.Exit(1)
	}

	// Initialize services
	gatherer := content.NewGatherer(content.NewYouTubeClient())
	srv := &api.Server{
		UserService: services.NewUserService(sqlite.NewUserRepository(database.DB)),
		DeckService: services.NewDeckService(
			sqlite.NewDeckRepository(database.DB), gatherer, study.NewDeckGenerator(client)),
		DeckEditService: services.NewDeckEditService(
			client, store, deckedit.NewInterpreter(), cfg.ChatHistoryLimit),
		NoteService: services.NewNoteService(
			sqlite.NewNoteRepository(database.DB), gatherer, study.NewNoteGenerator(client)),
		QuizService: services.NewQuizService(
			sqlite.NewQuizRepository(database.DB), gatherer, study.NewQuizGenerator(client), study.NewGrader(client)),
		Verifier:       verifier,
		DB:             database,
		Checks:         checks,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		MaxUploadMB:    cfg.MaxUploadMB,
	}

	// Configure HTTP server. Writes cover a full LLM round trip.
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.LLMTimeout*3 + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("===========================================")
	log.Info("StudyFlash Server Stopped")
	log.Info("===========================================")
}

func newLLMClient(ctx context.Context, cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == config.ProviderOpenAI {
		return llm.NewOpenAIClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.LLMModel, cfg.LLMTimeout), nil
	}
	return llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel, cfg.LLMTimeout)
}

type closableStore interface {
	proposal.Store
	io.Closer
}

// newProposalStore returns the configured store and the readiness checks it
// contributes.
func newProposalStore(cfg config.Config) (closableStore, map[string]func(context.Context) error) {
	if cfg.ProposalStore == config.StoreRedis {
		store := proposal.NewRedisStore(
			proposal.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.ProposalTTL)
		return store, map[string]func(context.Context) error{"redis": store.Ping}
	}
	sweep := cfg.ProposalTTL / 4
	if sweep < time.Second {
		sweep = time.Second
	}
	return proposal.NewMemoryStore(cfg.ProposalTTL, sweep), nil
}
