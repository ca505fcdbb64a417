package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	grpc_adapter "github.com/JoeShih716/go-mem-account/internal/app/core/adapter/in/grpc"
	cache_adapter "github.com/JoeShih716/go-mem-account/internal/app/core/adapter/out/cache"
	memory_adapter "github.com/JoeShih716/go-mem-account/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-mem-account/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-account/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-account/pkg/config"
	"github.com/JoeShih716/go-mem-account/pkg/logger"
	"github.com/JoeShih716/go-mem-account/pkg/metrics"
	"github.com/JoeShih716/go-mem-account/pkg/wal"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	envPath := flag.String("env", ".env", "path to .env file")
	audit := flag.Bool("audit", false, "replay the journal, print the rebuilt balance and exit")
	flag.Parse()

	// 1. 載入設定 (.env -> config.yaml -> 環境變數)
	if err := config.LoadEnvFile(*envPath); err != nil {
		logrus.Fatalf("Failed to load env file: %v", err)
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.Log)

	if *audit {
		runAudit(cfg, log)
		return
	}

	m := metrics.New()

	// 2. 初始化 WAL
	var journal memory_adapter.Journal
	if cfg.Ledger.JournalPath != "" {
		walFile, err := wal.Open(cfg.Ledger.JournalPath)
		if err != nil {
			log.Fatalf("Failed to open journal: %v", err)
		}
		// 程式結束時關閉 WAL
		defer walFile.Close()
		journal = walFile
	}

	// 3. 建立帳本
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	account := domain.NewAccount(cfg.Account.StartingBalance)
	opts := []memory_adapter.Option{
		memory_adapter.WithLogger(log.WithField("component", "ledger")),
		memory_adapter.WithMetrics(m),
	}

	var ledger usecase.Ledger
	var serial *memory_adapter.SerialLedger
	switch cfg.Ledger.Mode {
	case config.LedgerModeMutex:
		ledger, err = memory_adapter.NewMutexLedger(account, journal, opts...)
	case config.LedgerModeSerial:
		serial, err = memory_adapter.NewSerialLedger(account, journal, cfg.Ledger.QueueSize, opts...)
		if err == nil {
			serial.Start(ctx)
			ledger = serial
		}
	}
	if err != nil {
		log.Fatalf("Failed to init ledger: %v", err)
	}
	log.WithFields(logrus.Fields{
		"mode":    cfg.Ledger.Mode,
		"balance": account.Balance(),
		"journal": cfg.Ledger.JournalPath,
	}).Info("Ledger ready")

	// 4. 貸款試算快取
	var quoteCache usecase.QuoteCache = cache_adapter.NewMemoryCache()
	if cfg.Redis.Enabled {
		redisCache := cache_adapter.NewRedisCache(cache_adapter.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			TTL:      cfg.Redis.TTL,
		}, log.WithField("component", "redis"))
		defer redisCache.Close()

		pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisCache.Ping(pingCtx); err != nil {
			log.WithError(err).Warn("Redis unreachable, quotes will be computed without cache until it recovers")
		} else {
			log.WithField("addr", cfg.Redis.Addr).Info("Connected to Redis")
		}
		pingCancel()
		quoteCache = redisCache
	}

	// 5. 初始化 UseCase
	coreUseCase := usecase.NewCoreUseCase(ledger)
	loanUseCase := usecase.NewLoanUseCase(quoteCache, log.WithField("component", "loan"), m)

	// 6. 初始化 gRPC Adapter
	rpcLog := log.WithField("component", "grpc")
	limiter := grpc_adapter.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst, rpcLog)
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(
		grpc_adapter.LoggingInterceptor(rpcLog),
		grpc_adapter.MetricsInterceptor(m),
		grpc_adapter.RecoveryInterceptor(rpcLog),
		limiter.Unary(),
	))
	grpc_adapter.RegisterAccountServiceServer(s, grpc_adapter.NewGrpcServer(coreUseCase, loanUseCase))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(s, healthServer)
	healthServer.SetServingStatus(grpc_adapter.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(s) // 方便用 grpcurl 測試

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}
	go func() {
		log.Infof("Starting gRPC server on %s", cfg.Server.GRPCAddr)
		if err := s.Serve(lis); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// 7. Metrics
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("Starting metrics server on %s", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("metrics server: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	healthServer.Shutdown()
	s.GracefulStop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("metrics server shutdown")
	}

	balance, err := ledger.GetBalance(context.Background())
	if err != nil {
		log.WithError(err).Warn("read final balance")
	}

	// serial 模式: 等 run loop 處理完排隊中的請求再關 WAL
	cancel()
	if serial != nil {
		<-serial.Done()
	}
	log.WithField("balance", balance).Info("Server exited")
}

// runAudit 重放日誌並輸出重建的餘額
func runAudit(cfg *config.Config, log *logrus.Logger) {
	if cfg.Ledger.JournalPath == "" {
		log.Fatal("ledger.journal_path is empty, nothing to audit")
	}
	walFile, err := wal.Open(cfg.Ledger.JournalPath)
	if err != nil {
		log.Fatalf("Failed to open journal: %v", err)
	}
	defer walFile.Close()

	result, err := memory_adapter.Replay(walFile)
	if err != nil {
		log.Fatalf("Failed to replay journal: %v", err)
	}
	log.WithFields(logrus.Fields{
		"balance":    result.Account.Balance(),
		"sessions":   result.Sessions,
		"applied":    result.Applied,
		"rejected":   result.Rejected,
		"duplicates": result.Duplicates,
	}).Info("Journal replayed")
}
