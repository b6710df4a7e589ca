package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/openpost/composer/configs"
	"github.com/openpost/composer/internal/api/handlers"
	"github.com/openpost/composer/internal/api/middleware"
	"github.com/openpost/composer/internal/compose"
	job "github.com/openpost/composer/internal/jobs"
	"github.com/openpost/composer/internal/queue"
	"github.com/openpost/composer/internal/repository"
	"github.com/openpost/composer/internal/service"
	"github.com/openpost/composer/internal/splitter"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	registry := compose.NewRegistry()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	mediaAttachmentRepo := repository.NewMediaAttachmentRepository(db)
	splittingConfigRepo := repository.NewSplittingConfigRepository(db)
	publishAttemptRepo := repository.NewPublishAttemptRepository(db)
	apiKeyRepository := repository.NewApiKeyRepository(db)

	authService := service.NewAuthService(*cfg, userRepo)
	userService := service.NewUserService(userRepo)
	storageService := service.NewStorageService(*cfg)
	mediaService := service.NewMediaService(mediaAttachmentRepo, storageService)
	postService := service.NewPostService(db, registry, postRepo, socialAccountRepo, mediaAttachmentRepo)
	draftService := service.NewDraftService(db, registry, draftRepo, postRepo, mediaAttachmentRepo)
	splittingService := service.NewSplittingService(splittingConfigRepo, splitter.New(registry))
	platformService := service.NewPlatformService(*cfg, socialAccountRepo)
	blueskyService := service.NewBlueskyService(*cfg, socialAccountRepo)
	mastodonService := service.NewMastodonService(*cfg, socialAccountRepo)
	threadsService := service.NewThreadsService(*cfg, socialAccountRepo)
	apiKeyService := service.NewApiKeyService(apiKeyRepository)

	authMiddleware := middleware.NewAuthMiddleware(*cfg, apiKeyService)

	auth := handlers.NewAuthHandler(*cfg, authService)
	app.Get("/login", auth.Login)
	app.Get("/login/callback", auth.LoginCallbackHandler)

	platform := handlers.NewPlatformHandler(platformService, blueskyService, mastodonService, threadsService, *cfg)
	app.Get("/auth/:platform", platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	user := handlers.NewUserHandler(userService)
	api.Get("/user/info", user.GetUserInfo)

	apiKeys := handlers.NewApiKeyHandler(apiKeyService)
	api.Post("/api_key/new", apiKeys.CreateApiKey)
	api.Get("/api_key/list", apiKeys.ListKeys)
	api.Post("/api_key/remove", apiKeys.RemoveAPIKey)

	composeH := handlers.NewComposeHandler(registry)
	api.Get("/compose/platforms", composeH.ListPlatforms)
	api.Post("/compose/validate", composeH.Validate)

	post := handlers.NewPostHandler(postService, client)
	api.Post("/posts/create", post.CreatePost)
	api.Post("/posts/thread", post.CreateThread)
	api.Get("/posts", post.ListPosts)
	api.Get("/posts/thread", post.ListThread)
	api.Post("/posts/publish", post.PublishPost)
	api.Post("/posts/remove", post.RemovePost)

	draft := handlers.NewDraftHandler(draftService)
	api.Post("/drafts/save", draft.SaveDraft)
	api.Get("/drafts", draft.ListDrafts)
	api.Post("/drafts/convert", draft.ConvertDraft)
	api.Post("/drafts/remove", draft.RemoveDraft)

	media := handlers.NewMediaHandler(mediaService)
	api.Post("/media/upload", media.UploadMedia)
	api.Get("/media", media.ListMedia)
	api.Post("/media/remove", media.RemoveMedia)

	splitting := handlers.NewSplittingHandler(splittingService)
	api.Post("/splitting/save", splitting.SaveConfig)
	api.Get("/splitting", splitting.ListConfigs)
	api.Post("/splitting/preview", splitting.PreviewSplit)
	api.Post("/splitting/remove", splitting.RemoveConfig)

	// social accounts api routes
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Post("/accounts/bluesky/link", platform.LinkBlueskyAccount)
	api.Post("/accounts/disable", platform.DisableSocialAccount)
	api.Post("/accounts/remove", platform.DeleteSocialAccount)

	// cron jobs
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, blueskyService, mastodonService, threadsService)

	//queue
	queueW := queue.NewQueue(registry, postRepo, socialAccountRepo, publishAttemptRepo, blueskyService, mastodonService, threadsService)

	c := cron.New()
	c.AddFunc("@every 00h10m00s", refreshTokenJob.RefreshTokens)
	c.Start()

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
