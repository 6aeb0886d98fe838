// Package logger constructs zap loggers for ga4mcp.
//
// All output goes to stderr: stdout is reserved for the MCP protocol, and a
// single stray log line there corrupts the JSON-RPC stream.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a SugaredLogger writing to stderr.
//
// With jsonOutput the logger emits structured JSON for machine consumption;
// otherwise it uses a human-readable console encoding. Loggers are passed
// explicitly to components rather than held in a package global, so tests
// can substitute zap.NewNop().Sugar().
func New(jsonOutput bool, debug bool) *zap.SugaredLogger {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	var encoder zapcore.Encoder
	if jsonOutput {
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	} else {
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(cfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return zap.New(core).Sugar()
}

// Nop returns a discard-everything logger for tests and optional wiring.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
