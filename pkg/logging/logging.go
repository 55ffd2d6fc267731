// Package logging builds the zap logger used by the command-line tool.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config selects the logger flavor.
type Config struct {
	AppName    string
	AppVersion string
	Verbose    bool // Debug level.
	Console    bool // Force human-readable output even when stderr is not a terminal.
}

// Setup builds a logger for cfg and installs it as the zap global.
// A development console logger is used when stderr is a terminal or Console is
// set; otherwise a production JSON logger.
func Setup(cfg Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.Console || term.IsTerminal(int(os.Stderr.Fd())) {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.DisableStacktrace = true
	} else {
		zcfg = zap.NewProductionConfig()
	}
	if cfg.Verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	zcfg.InitialFields = map[string]interface{}{
		"appName":    cfg.AppName,
		"appVersion": cfg.AppVersion,
	}

	logger, err := zcfg.Build()
	if err != nil {
		return zap.NewNop(), err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
