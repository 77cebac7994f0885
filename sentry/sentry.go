package sentry

import (
	"context"
	"os"

	sentry "github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"tunely/config"
)

func Init(cfg config.SentryConfig) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		TracesSampleRate: 1.0,
	}); err != nil {
		log.Fatalf("sentry.Init: %s", err)
	}
}

func GetSentryGin() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{})
}

func ReportError(err error) {
	sentry.CaptureException(err)
}

func SetContext(name string, value map[string]interface{}) {
	sentry.GetHubFromContext(context.Background()).ConfigureScope(func(scope *sentry.Scope) {
		scope.SetContext(name, value)
		scope.SetTag("release", os.Getenv("RELEASE"))
	})
}

func ReportMessage(message string) {
	sentry.CaptureMessage(message)
}
