package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/letter5700/backend/internal/db"
	"github.com/letter5700/backend/internal/handlers"
	"github.com/letter5700/backend/internal/jobs"
	"github.com/letter5700/backend/internal/platform/envutil"
	"github.com/letter5700/backend/internal/platform/fcm"
	"github.com/letter5700/backend/internal/platform/gemini"
	"github.com/letter5700/backend/internal/platform/logger"
	"github.com/letter5700/backend/internal/platform/qdrant"
	"github.com/letter5700/backend/internal/repos"
	"github.com/letter5700/backend/internal/server"
	"github.com/letter5700/backend/internal/services"
	"github.com/letter5700/backend/internal/types"
)

func main() {
	// Logger
	logMode := envutil.String("LOG_MODE", "development")
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Error("Postgres auto migration failed", "error", err)
		os.Exit(1)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	memberRepo := repos.NewMemberRepo(thePG, log)
	dailyRecordRepo := repos.NewDailyRecordRepo(thePG, log)
	adviceRepo := repos.NewAdviceRepo(thePG, log)

	// Platform clients
	log.Info("Setting up platform clients from main...")
	geminiClient, err := gemini.NewClient(log)
	if err != nil {
		log.Error("Could not init Gemini client", "error", err)
		os.Exit(1)
	}
	store, err := qdrant.NewStore(log, qdrant.ConfigFromEnv())
	if err != nil {
		log.Error("Could not init Qdrant store", "error", err)
		os.Exit(1)
	}
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 2*time.Minute)
	if err := store.EnsureCollection(startupCtx); err != nil {
		cancelStartup()
		log.Error("Could not ensure Qdrant collection", "error", err)
		os.Exit(1)
	}
	fcmClient, err := fcm.NewFromEnv(log)
	if err != nil {
		log.Error("Could not init FCM client", "error", err)
		os.Exit(1)
	}

	// Seed data
	seedMember(startupCtx, log, memberRepo)
	seeder := services.NewKnowledgeSeeder(log, geminiClient, store)
	seeder.Seed(startupCtx)
	cancelStartup()

	// Worker pool
	workers := envutil.Int("ADVICE_WORKERS", 4)
	queueSize := envutil.Int("ADVICE_QUEUE_SIZE", 64)
	pool := jobs.NewPool(log, workers, queueSize)
	pool.Start()

	// Services
	log.Info("Setting up Services from main...")
	advisor := services.NewAdvisor(log, geminiClient)
	pipeline := services.NewAdvicePipeline(log, dailyRecordRepo, adviceRepo, advisor, geminiClient, store, fcmClient, pool)
	recordService := services.NewRecordService(log, memberRepo, dailyRecordRepo, pipeline)

	// Handlers
	log.Info("Setting up handlers from main...")
	recordHandler := handlers.NewRecordHandler(recordService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		RecordHandler: recordHandler,
	})

	port := envutil.String("PORT", "8080")
	srv := &http.Server{Addr: ":" + port, Handler: router}

	go func() {
		log.Info("Server listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", "error", err)
		}
	}()

	// In-flight advice runs drain before the process exits; killing them
	// mid-run would leave entries without letters for no reason.
	signalCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	<-signalCtx.Done()
	stop()

	log.Info("Shutting down...")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("Server shutdown failed", "error", err)
	}
	cancelShutdown()
	pool.Stop()
	log.Info("Shutdown complete")
}

// seedMember creates the single demo account on first boot so the client
// can write entries without a registration flow.
func seedMember(ctx context.Context, log *logger.Logger, members repos.MemberRepo) {
	count, err := members.Count(ctx, nil)
	if err != nil {
		log.Warn("Member count failed; skipping seed", "error", err)
		return
	}
	if count > 0 {
		return
	}
	if _, err := members.Create(ctx, nil, &types.Member{
		Username: envutil.String("SEED_USERNAME", "test"),
		Password: envutil.String("SEED_PASSWORD", "test1234"),
		Nickname: envutil.String("SEED_NICKNAME", "테스터"),
	}); err != nil {
		log.Warn("Member seed failed", "error", err)
		return
	}
	log.Info("Seeded initial member")
}
