// Package pblog builds the single zap.Logger every node binary roots
// its logging in, toggling between a human-readable development
// logger and a structured production one.
package pblog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a zap.Logger. development selects zap's console encoder
// at debug level; production selects the JSON encoder at info level.
func New(development bool) (*zap.Logger, error) {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}
	return cfg.Build()
}

// Must panics if New fails to build a logger -- used at node startup
// where a broken logging config should abort the process immediately.
func Must(development bool) *zap.Logger {
	log, err := New(development)
	if err != nil {
		panic(err)
	}
	return log
}
