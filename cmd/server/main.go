package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/codebuildervaibhav/studygate/internal/cleanup"
	"github.com/codebuildervaibhav/studygate/internal/config"
	"github.com/codebuildervaibhav/studygate/internal/handlers"
	applog "github.com/codebuildervaibhav/studygate/internal/log"
	"github.com/codebuildervaibhav/studygate/internal/reminder"
	"github.com/codebuildervaibhav/studygate/internal/storage"
	"github.com/codebuildervaibhav/studygate/internal/transcription"
)

func main() {
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		applog.Configure("", os.Stdout)
		base := applog.Base()
		base.Fatal().Err(err).Msg("failed to load config")
	}
	applog.Configure(cfg.Env.LogLevel, os.Stdout)
	log := applog.WithComponent("main")

	// Storage: blob when enabled, local disk always as fallback.
	local := storage.NewLocal(cfg.Uploads.PublicDir, cfg.Env.FallbackUploadDir)
	var blob storage.Blob
	if cfg.Env.BlobEnable && cfg.Env.BlobBucket != "" {
		store, err := storage.NewBlobStore(context.Background(), cfg.Env.BlobBucket, cfg.Env.BlobPrefix)
		if err != nil {
			log.Warn().Err(err).Msg("blob storage unavailable, using local disk")
		} else {
			blob = store
			defer store.Close()
			log.Info().Str("bucket", cfg.Env.BlobBucket).Msg("blob storage enabled")
		}
	}
	resolver := storage.NewResolver(blob, local, applog.WithComponent("storage"))

	db, err := storage.NewMetadataDB(cfg.Storage.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open metadata database")
	}
	defer db.Close()

	// Transcription providers. Video containers only go to AssemblyAI;
	// Google Speech additionally serves extracted audio.
	assembly := transcription.NewAssemblyAI(cfg.Env.AssemblyAPIKey(), cfg.Poll.Interval, cfg.Poll.Timeout)
	google := transcription.NewGoogleSpeech(cfg.Env.GoogleAPIKey(), cfg.Poll.Interval, cfg.Poll.Timeout)
	orchLog := applog.WithComponent("transcription")
	videoOrch := transcription.NewOrchestrator(resolver, orchLog, assembly)
	audioOrch := transcription.NewOrchestrator(resolver, orchLog, assembly, google)

	// Email reminders are optional: without SMTP settings events are still
	// created, just never mailed about.
	var mailer reminder.Mailer
	if cfg.Env.SMTPConfigured() {
		smtp, err := reminder.NewSMTPMailer(cfg.Env)
		if err != nil {
			log.Warn().Err(err).Msg("SMTP relay unavailable, reminders disabled")
		} else {
			mailer = smtp
			log.Info().Str("host", cfg.Env.SMTPHost).Msg("email reminders enabled")
		}
	}
	reminders := reminder.New(mailer, applog.WithComponent("reminder"))
	defer reminders.Stop()

	sweeper := cleanup.NewSweeper(local.Dir(), cfg.Env.UploadKeepDays, applog.WithComponent("cleanup"))
	if err := sweeper.Start(); err != nil {
		log.Warn().Err(err).Msg("upload sweeper failed to start")
	}
	defer sweeper.Stop()

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Uploads.MaxVideoMB * 1024 * 1024,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, Range, x-filename, x-verbatim, x-language-code",
	}))
	app.Use(handlers.CrossOriginIsolation(cfg.Env.CrossOriginIsolation))
	app.Use(handlers.AccessSecret(cfg.Env.SiteAccessSecret))

	if local.ServesPublic() {
		app.Static("/uploads", local.PublicDir())
	}

	uploadHandler := handlers.NewUploadHandler(resolver, videoOrch, audioOrch, db,
		cfg.Uploads.MaxVideoMB, cfg.Uploads.MaxAudioMB, applog.WithComponent("upload"))
	transcriptHandler := handlers.NewTranscriptHandler(assembly, db,
		cfg.Poll.Interval, cfg.Poll.Timeout, applog.WithComponent("transcript"))
	convertHandler := handlers.NewConvertHandler(applog.WithComponent("convert"))
	eventsHandler := handlers.NewEventsHandler(resolver, reminders, applog.WithComponent("events"))
	youtubeKey := cfg.Env.YouTubeKey
	if youtubeKey == "" {
		youtubeKey = cfg.Env.GoogleAPIKey()
	}
	youtubeHandler := handlers.NewYouTubeHandler(youtubeKey, applog.WithComponent("youtube"))
	proxyHandler := handlers.NewProxyHandler(applog.WithComponent("proxy"))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":            "studygate",
			"provider":           audioOrch.ActiveProvider(),
			"videoTranscription": videoOrch.ActiveProvider(),
			"audioTranscription": audioOrch.ActiveProvider(),
			"emailReminders":     reminders.Configured(),
			"youtubeSearch":      youtubeKey != "",
		})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Post("/upload/video", uploadHandler.HandleVideo)
	app.Post("/upload/audio", uploadHandler.HandleAudio)
	app.Post("/upload/video-raw", uploadHandler.HandleVideoRaw)
	app.Post("/upload/audio-raw", uploadHandler.HandleAudioRaw)

	app.Get("/transcript/status/:id", transcriptHandler.Status)
	app.Get("/transcripts", transcriptHandler.List)
	app.Get("/ws/transcript/:id", websocket.New(transcriptHandler.Watch))

	app.Post("/convert", convertHandler.Handle)
	app.Post("/preview", eventsHandler.Preview)
	app.Post("/create", eventsHandler.Create)

	app.Post("/youtube/search", youtubeHandler.Search)
	app.Get("/proxy/video", proxyHandler.Video)

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint
		log.Info().Msg("shutting down")
		_ = app.Shutdown()
	}()

	log.Info().Str("addr", cfg.Addr()).
		Str("videoProvider", videoOrch.ActiveProvider()).
		Str("audioProvider", audioOrch.ActiveProvider()).
		Msg("server starting")
	if err := app.Listen(cfg.Addr()); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
