package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"semantist/internal/adcopy"
	"semantist/internal/bot"
	"semantist/internal/cluster"
	"semantist/internal/config"
	"semantist/internal/database"
	"semantist/internal/export"
	"semantist/internal/handlers"
	"semantist/internal/jobs"
	"semantist/internal/llm"
	"semantist/internal/logging"
	"semantist/internal/scraper"
	"semantist/internal/services"
	"semantist/internal/wordstat"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting Semantist Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}
	log.Printf("📋 Configuration loaded (Port: %s, DB: %s)", cfg.Port, cfg.DatabasePath)

	overrides, err := config.LoadOverrides("semantist.yaml")
	if err != nil {
		log.Fatalf("❌ Failed to load overrides: %v", err)
	}

	// Initialize SQLite campaign history
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Initialize(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	// Domain services
	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, overrides)
	wordstatClient := wordstat.NewClient(cfg.WordstatURL, cfg.WordstatToken)
	collector := wordstat.NewCollector(wordstatClient, cfg.PollInterval, cfg.PollAttempts)
	mockSource := wordstat.NewMockSource(overrides)
	clusterer := cluster.NewLLMClusterer(llmClient)
	generator := adcopy.NewGenerator(llmClient)
	scraperService := scraper.NewService()

	excelWriter, err := export.NewExcelWriter(cfg.OutputDir)
	if err != nil {
		log.Fatalf("❌ Failed to prepare output directory: %v", err)
	}
	var sheetSink export.SheetSink
	if cfg.SheetsEnabled() {
		sheetSink = export.NewSheetsClient(cfg.SheetsBaseURL, cfg.SheetsAPIKey, cfg.SheetsMasterID)
		log.Println("✅ Sheets bridge configured")
	} else {
		log.Println("⚠️ Sheets bridge not configured, exporting to Excel only")
	}
	exporter := export.NewExporter(excelWriter, sheetSink)

	// Conversation engine
	sessions := bot.NewSessionManager(cfg.SessionTTL)
	metrics := services.InitMetrics(sessions)
	transport := bot.NewTransport(cfg.BotAPIBase, cfg.BotToken)

	engine := bot.NewEngine(bot.Deps{
		Transport: transport,
		Sessions:  sessions,
		Collector: collector,
		Mock:      mockSource,
		Clusterer: clusterer,
		Generator: generator,
		Scraper:   scraperService,
		LLM:       llmClient,
		Exporter:  exporter,
		Recorder:  db,
		Metrics:   metrics,
	})

	// Housekeeping jobs
	housekeeper, err := jobs.NewHousekeeper(cfg.OutputDir, cfg.ExportRetention, collector)
	if err != nil {
		log.Fatalf("❌ Failed to create housekeeper: %v", err)
	}
	if err := housekeeper.Start(); err != nil {
		log.Fatalf("❌ Failed to start housekeeping jobs: %v", err)
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "Semantist v1.0",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  90 * time.Second,
		BodyLimit:    2 * 1024 * 1024, // webhook updates are small
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())

	// Prometheus metrics middleware
	prometheus := fiberprometheus.New("semantist")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	// Handlers
	healthHandler := handlers.NewHealthHandler(sessions)
	webhookHandler := handlers.NewWebhookHandler(engine, cfg.WebhookSecret)
	campaignHandler := handlers.NewCampaignHandler(db)

	app.Get("/health", healthHandler.Handle)
	app.Post("/webhook/:secret", webhookHandler.Handle)
	app.Get("/api/campaigns", campaignHandler.List)

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		housekeeper.Stop()

		if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
