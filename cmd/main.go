package main

import (
	"os"

	"github.com/yungbote/studybridge-backend/internal/app"
	"github.com/yungbote/studybridge-backend/internal/platform/envutil"
	"github.com/yungbote/studybridge-backend/internal/platform/logger"
)

func main() {
	log, err := logger.New(envutil.String("APP_MODE", "dev"))
	if err != nil {
		os.Exit(1)
	}
	defer log.Sync()

	a, err := app.New(log)
	if err != nil {
		log.Fatal("startup failed", "error", err)
	}
	if err := a.Run(); err != nil {
		log.Fatal("server exited", "error", err)
	}
}
