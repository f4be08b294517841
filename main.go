package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/datahex-administration/ConnectionQuest/handlers"
	"github.com/datahex-administration/ConnectionQuest/middleware"
	"github.com/datahex-administration/ConnectionQuest/models"
	"github.com/datahex-administration/ConnectionQuest/services"
	"github.com/datahex-administration/ConnectionQuest/storage"
	"github.com/datahex-administration/ConnectionQuest/utils"
	"github.com/datahex-administration/ConnectionQuest/workers"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB, branding uploads are the biggest payloads
	})

	app.Use(middleware.MetricsMiddleware())

	// CORS runs before the gateway check so preflights get answered
	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		log.Println("⚠️  ALLOWED_ORIGINS environment variable not set, using default: http://localhost:3000")
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	allowedOriginsString := strings.Join(allowedOriginsList, ",")

	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOriginsString,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, User-Agent, Cache-Control, X-Admin-Key, X-Participant-ID",
		ExposeHeaders:    "Content-Length, Content-Type, Authorization, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// 🔐❗ GLOBAL: Only Gateway requests allowed (health and metrics excepted)
	app.Use(middleware.GatewayAuthMiddleware())

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	if err := utils.InitR2(); err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}

	// TranslateError turns unique violations into gorm.ErrDuplicatedKey,
	// which the storage layer relies on for code and voucher races
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Participant{},
		&models.QuizSession{},
		&models.SessionMember{},
		&models.Question{},
		&models.QuestionOption{},
		&models.Answer{},
		&models.Voucher{},
		&models.CouponTemplate{},
		&models.BrandingAsset{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	store := storage.NewGormStore(db)

	participantService := services.NewParticipantService(db)
	questionService := services.NewQuestionService(db)
	couponService := services.NewCouponService(db)
	overviewService := services.NewOverviewService(db)
	brandingService := services.NewBrandingService(db)

	rewardService := services.NewRewardService(store)
	sessionService := services.NewSessionService(store, store)
	answerService := services.NewAnswerService(store, store)

	minReward := 50
	if v := os.Getenv("REWARD_MIN_PERCENTAGE"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 && parsed <= 100 {
			minReward = parsed
		} else {
			log.Printf("⚠️  Invalid REWARD_MIN_PERCENTAGE %q, using default %d", v, minReward)
		}
	}
	matchService := services.NewMatchService(store, store, rewardService, minReward)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CRM sync is optional: without a CRM the quiz still runs standalone
	crmBaseURL := os.Getenv("CRM_BASE_URL")
	if crmBaseURL != "" {
		crmToken := os.Getenv("CRM_SERVICE_TOKEN")
		if crmToken == "" {
			log.Fatal("CRM_SERVICE_TOKEN environment variable not set")
		}
		importWorker := workers.NewParticipantImportWorker(db, crmBaseURL, "/api/v1/public/contacts", crmToken)
		importWorker.Start(ctx)
		exportWorker := workers.NewVoucherExportWorker(db)
		exportWorker.Start(ctx)
	} else {
		log.Println("⚠️  CRM_BASE_URL not set — CRM sync workers disabled")
	}

	couponService.StartCampaignScheduler()

	handlers.SetupQuizRoutes(app, participantService, sessionService, answerService, matchService, rewardService, brandingService)
	handlers.SetupAdminRoutes(app, questionService, couponService, participantService, overviewService, brandingService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5400"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ GatewayAuthMiddleware enforced globally — all requests must come from Gateway")
	log.Printf("✅ CORS configured for origins: %s", allowedOriginsString)
	log.Printf("✅ Reward gate: sessions below %d%% match conclude without a voucher", minReward)

	<-ctx.Done()
	log.Println("Shutting down server...")
}
