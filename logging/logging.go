// Package logging holds the process-wide zap logger. Controllers fetch it
// with L(); main replaces the default nop logger during startup so tests and
// library use stay silent unless configured.
package logging

import (
	"go.uber.org/zap"
)

var sugar = zap.NewNop().Sugar()

// Init builds the production logger and installs it as the package logger.
func Init(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	sugar = logger.Sugar()
	return logger, nil
}

// L returns the current sugared logger.
func L() *zap.SugaredLogger {
	return sugar
}
