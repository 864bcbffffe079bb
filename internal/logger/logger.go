package logger

import (
	"go.uber.org/zap"
)

// New returns a development logger for dev/development/test and a JSON
// production logger otherwise.
func New(env string) (*zap.Logger, error) {
	switch env {
	case "dev", "development", "test":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
