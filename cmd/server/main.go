package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/bytetech/academy-backend/internal/config"
	"github.com/bytetech/academy-backend/internal/database"
	"github.com/bytetech/academy-backend/internal/handler"
	"github.com/bytetech/academy-backend/internal/mail"
	"github.com/bytetech/academy-backend/internal/middleware"
	"github.com/bytetech/academy-backend/internal/payment"
	"github.com/bytetech/academy-backend/internal/queue"
	"github.com/bytetech/academy-backend/internal/repository"
	"github.com/bytetech/academy-backend/internal/router"
	queuepublisher "github.com/bytetech/academy-backend/internal/service"
	"github.com/bytetech/academy-backend/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var media storage.Store
	switch cfg.StorageDriver {
	case "s3":
		media, err = storage.NewS3Store(cfg)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
	default:
		media, err = storage.NewLocal(cfg.UploadDir)
		if err != nil {
			log.Fatalf("storage: %v", err)
		}
	}

	mailer := mail.NewMailer(cfg)
	checkout := payment.NewClient(cfg)
	events := queuepublisher.New(queue.BrokerURL())

	users := repository.NewUserRepo(db)
	codes := repository.NewCodeRepo(db)
	resets := repository.NewResetRepo(db)
	courses := repository.NewCourseRepo(db)
	sections := repository.NewSectionRepo(db)
	lessons := repository.NewLessonRepo(db)
	purchases := repository.NewPurchaseRepo(db)
	progress := repository.NewProgressRepo(db)
	marks := repository.NewMarkRepo(db)
	threads := repository.NewThreadRepo(db)
	messages := repository.NewMessageRepo(db)

	authH := handler.NewAuthHandler(cfg, users, codes, resets, mailer)
	courseH := handler.NewCourseHandler(cfg, courses, sections, lessons, purchases, progress, checkout)
	paymentH := handler.NewPaymentHandler(cfg, purchases, courses, users, events)
	workbenchH := handler.NewWorkbenchHandler(cfg, courses, sections, lessons, purchases, users, media)
	progressH := handler.NewProgressHandler(courses, lessons, purchases, progress, marks)
	forumH := handler.NewForumHandler(courses, lessons, purchases, threads, messages)
	supportH := handler.NewSupportHandler(cfg, mailer)
	mediaH := handler.NewMediaHandler(media)

	e := echo.New()
	e.Validator = handler.NewValidator()

	// Redis backs the rate limiter and the catalog cache; both become
	// pass-throughs when it is unreachable.
	rdb := config.NewRedisClient()
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	router.RegisterHealth(e, db)
	router.RegisterAuth(e, cfg, authH)
	router.RegisterPublic(e, cfg, courseH, cacheMW)
	router.RegisterWebhook(e, paymentH)
	router.RegisterLearner(e, cfg, courseH, progressH, forumH, supportH, mediaH)
	router.RegisterWorkbench(e, cfg, workbenchH)

	go func() {
		if err := queue.StartPurchaseConsumer(); err != nil {
			log.Printf("purchase consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
