package logging

import (
	"log"
	"sync"

	"go.uber.org/zap"
)

var (
	once   sync.Once
	logger *zap.SugaredLogger
)

// GetSugaredLogger returns the process-wide sugared logger, building it on
// first use.
func GetSugaredLogger() *zap.SugaredLogger {
	once.Do(func() {
		zl, err := zap.NewProduction()
		if err != nil {
			log.Fatalf("failed to initialize zap logger: %v", err)
		}
		logger = zl.Sugar()
	})
	return logger
}
