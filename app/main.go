package main

import (
	"os"
	"os/signal"
	"sync"
	"time"

	"mdpva/config"
	"mdpva/middleware"
	"mdpva/services/membership/delivery"
	"mdpva/services/membership/repository"
	"mdpva/services/membership/usecase"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var log *logrus.Logger
var wg sync.WaitGroup

func main() {
	if err := godotenv.Load(); err != nil {
		logrus.Warn("No .env file found, using environment as-is")
	}

	log = config.GetLogrusInstance()

	startHTTP()
}

func startHTTP() {
	log.Info("Starting HTTP")
	app := fiber.New(config.GetFiberConfig())

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	db, err := config.BootDB()
	if err != nil {
		log.Fatalf("Failed to boot DB: %v", err)
		return
	}

	memberRepo := repository.NewMemberRepository(db)
	seqAllocator := repository.NewSequenceAllocator(db)
	geoLookup := repository.NewGeoLookup(config.GetPostalAPIURL())
	blobStore := repository.NewBlobStore()

	memberUC := usecase.NewMemberUseCase(memberRepo, seqAllocator, blobStore)
	importUC := usecase.NewImportUseCase(memberRepo, seqAllocator)
	exportUC := usecase.NewExportUseCase(memberRepo, blobStore)

	exportLimiter := middleware.NewWindowLimiter(3, time.Minute)

	delivery.NewUserAuthHandler(app, db)
	delivery.NewImportHandler(app, importUC)
	delivery.NewExportHandler(app, exportUC, exportLimiter)
	delivery.NewMemberHandler(app, memberUC, geoLookup)

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Infof("Starting HTTP server on port %s", config.GetFiberHttpPort())
		if err := app.Listen(config.GetFiberListenAddress()); err != nil {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt, os.Kill)

	<-signalChan

	log.Info("Shutting down the server...")

	if err := app.Shutdown(); err != nil {
		log.Errorf("Error during server shutdown: %v", err)
	}

	wg.Wait()
	log.Info("Server shut down gracefully")
}
