// Package logging provides structured logging functionality.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"options-copilot/internal/models"
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string
	Console    bool
	File       bool
	FilePath   string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	home, _ := os.UserHomeDir()
	return LogConfig{
		Level:      "info",
		Console:    true,
		File:       true,
		FilePath:   filepath.Join(home, ".config", "options-copilot", "logs", "copilot.log"),
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     30,
	}
}

// NewLogger creates a new logger with default configuration.
func NewLogger() zerolog.Logger {
	return NewLoggerWithConfig(DefaultLogConfig())
}

// NewLoggerWithConfig creates a new logger with the specified configuration.
func NewLoggerWithConfig(cfg LogConfig) zerolog.Logger {
	var writers []io.Writer

	if cfg.Console {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	if cfg.File {
		logDir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(logDir, 0o755); err == nil {
			writers = append(writers, &lumberjack.Logger{
				Filename:   cfg.FilePath,
				MaxSize:    cfg.MaxSize,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAge,
				Compress:   true,
			})
		}
	}

	var writer io.Writer
	switch len(writers) {
	case 0:
		writer = os.Stderr
	case 1:
		writer = writers[0]
	default:
		writer = zerolog.MultiLevelWriter(writers...)
	}

	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	return zerolog.New(writer).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ContextKey is the type for context keys.
type ContextKey string

// LoggerKey is the context key for the logger.
const LoggerKey ContextKey = "logger"

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// FromContext retrieves the logger from context.
func FromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(LoggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// WithTicker adds a ticker symbol to the logger context.
func WithTicker(logger zerolog.Logger, ticker string) zerolog.Logger {
	return logger.With().Str("ticker", ticker).Logger()
}

// LogPlan logs a completed trade plan.
func LogPlan(logger zerolog.Logger, plan *models.TradePlan) {
	logger.Info().
		Str("event", "trade_plan").
		Str("plan_id", plan.ID).
		Str("ticker", plan.Contract.Ticker).
		Str("kind", string(plan.Contract.Kind)).
		Float64("strike", plan.Contract.Strike).
		Float64("premium", plan.Contract.Premium).
		Int("contracts", plan.Position.Contracts).
		Float64("risk_dollars", plan.Position.RiskDollars).
		Float64("stop", plan.StopTarget.StopLoss).
		Float64("target", plan.StopTarget.Target).
		Str("decision", string(plan.Decision)).
		Msg("Trade plan created")
}

// LogSizingFallback logs a composite-sizer degradation to fixed sizing.
// The fallback is informational, never surfaced as a failure.
func LogSizingFallback(logger zerolog.Logger, ticker, reason string) {
	logger.Warn().
		Str("event", "sizing_fallback").
		Str("ticker", ticker).
		Str("reason", reason).
		Msg("Composite sizing failed, using fixed-fraction policy")
}

// LogBacktest logs a backtest summary.
func LogBacktest(logger zerolog.Logger, result *models.BacktestResult, elapsed time.Duration) {
	logger.Info().
		Str("event", "backtest").
		Str("ticker", result.Ticker).
		Int("trades", result.NTrades).
		Float64("win_rate_pct", result.WinRatePct).
		Float64("expectancy", result.Expectancy).
		Float64("sharpe", result.SharpeAnnual).
		Dur("elapsed", elapsed).
		Msg("Backtest completed")
}
