package main

import (
	"net/http"
	"time"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"tunely/cache"
	"tunely/catalog"
	"tunely/config"
	"tunely/controller"
	"tunely/database"
	"tunely/extractor"
	"tunely/gemini"
	"tunely/handlers"
	"tunely/rooms"
	"tunely/sentry"
)

func main() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:        true,
		FieldsOrder:     []string{"module", "function"},
		TimestampFormat: time.RFC3339,
	})

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg := config.New()
	sentry.Init(cfg.Sentry)

	if err := run(cfg); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config) error {
	db, err := database.New(cfg.Options.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	// The Data API resolver needs a key; without one the scraping
	// clients cover search on their own.
	var resolver catalog.Resolver
	if cfg.Youtube.APIKey != "" {
		resolver = catalog.NewDataAPIClient(cfg.Youtube.APIKey)
		log.Info("using YouTube Data API resolver")
	} else {
		resolver = catalog.NewClient()
		log.Info("using InnerTube resolver")
	}

	ctrl := controller.New(resolver, extractor.New(), cache.New(cfg.Cache.TTL), cfg.Cache)
	manager := handlers.NewManager(ctrl, db, rooms.NewHub(), gemini.NewClient(cfg.Gemini), cfg.Spotify.Enabled)

	router := gin.Default()
	router.Use(sentry.GetSentryGin())
	router.Use(corsMiddleware(cfg.Options.ClientURL))
	manager.Register(router)

	port := cfg.Options.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting server on :%s", port)
	return router.Run(":" + port)
}

func corsMiddleware(clientURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (clientURL == "" || origin == clientURL) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
