package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Duke-CEI-Center/AutoEDA/internal/api"
	"github.com/Duke-CEI-Center/AutoEDA/internal/events"
	"github.com/Duke-CEI-Center/AutoEDA/internal/ledger"
	"github.com/Duke-CEI-Center/AutoEDA/internal/orchestrator"
	"github.com/Duke-CEI-Center/AutoEDA/internal/registry"
	"github.com/Duke-CEI-Center/AutoEDA/internal/resolver"
	"github.com/Duke-CEI-Center/AutoEDA/internal/session"
	"github.com/Duke-CEI-Center/AutoEDA/internal/stageclient"
	"github.com/Duke-CEI-Center/AutoEDA/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting autoeda-agent")

	ctx := context.Background()

	// Registry читает каталог designs/ (DESIGNS_ROOT)
	reg := registry.New(registry.DefaultRoot())

	// Сессии живут в памяти процесса
	store := session.NewStore(logger)

	// Клиент сервисов этапов (SYNTH_URL, UNIFIED_PLACEMENT_URL, ...)
	client := stageclient.New(stageclient.Config{Logger: logger})

	// Аудитный журнал — опционален, включается через DB_URL
	var led *ledger.Ledger
	if os.Getenv("DB_URL") != "" {
		pool, err := ledger.NewPool(ctx)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := ledger.EnsureSchema(ctx, pool); err != nil {
			logger.Error("failed to ensure ledger schema", "error", err)
			os.Exit(1)
		}

		led = ledger.New(pool)
		logger.Info("audit ledger enabled")
	}

	// События — опциональны, включаются через MQ_URL
	var publisher *events.Publisher
	if os.Getenv("MQ_URL") != "" {
		conn, err := events.NewConnection(os.Getenv("MQ_URL"), logger)
		if err != nil {
			logger.Error("failed to connect to RabbitMQ", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := events.SetupTopology(ctx, conn); err != nil {
			logger.Error("failed to setup topology", "error", err)
			os.Exit(1)
		}

		publisher = events.NewPublisher(conn, logger)
		logger.Info("event publishing enabled")
	}

	orch := orchestrator.New(orchestrator.Config{
		Resolver: resolver.New(reg, logger),
		Client:   client,
		Store:    store,
		Ledger:   led,
		Events:   publisher,
		Logger:   logger,
	})

	handler := api.NewHandler(api.Config{
		Orchestrator: orch,
		Store:        store,
		Registry:     reg,
		Ledger:       led,
		Logger:       logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("AGENT_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Ожидаем сигнал завершения
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")

	// Потоки синхронные: даём активным запросам время договорить
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
