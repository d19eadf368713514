package main

import (
	"log"
	"os"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/lambda-feedback/studyboard/cmd"
	"github.com/lambda-feedback/studyboard/util"
)

// set at build time via -ldflags
var (
	Version   string
	Buildtime string
	Commit    string
)

const sentryFlushTimeout = 2 * time.Second

func main() {
	if err := setupSentry(os.Getenv); err != nil {
		log.Fatalf("sentry init failed: %s", err)
	}
	defer sentry.Flush(sentryFlushTimeout)

	appVersion := "local"
	if Version != "" {
		appVersion = Version
	}

	appBuildtime, _ := time.Parse(time.RFC3339, Buildtime)

	cmd.Execute(cmd.ExecuteParams{
		Version:  appVersion,
		Compiled: appBuildtime,
	})
}

// setupSentry enables error reporting when SENTRY_DSN is set. Events
// carry the release commit.
func setupSentry(getenv func(string) string) error {
	dsn := getenv("SENTRY_DSN")
	if dsn == "" {
		return nil
	}

	environment := getenv("SENTRY_ENVIRONMENT")
	if environment == "" {
		environment = "local"
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Debug:            util.Truthy(getenv("SENTRY_DEBUG")),
		TracesSampleRate: 1.0,
		EnableTracing:    true,
		Environment:      environment,
		Release:          Commit,
		ServerName:       "studyboard",
	})
}
