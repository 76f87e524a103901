package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/calloway/automata-core/internal/infrastructure/config"
)

// serviceName stamps every log record.
const serviceName = "automata"

// levelNames maps config spellings onto slog levels. Unknown spellings
// fall back to info.
var levelNames = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// Logger wraps slog.Logger with Automata conventions: level, format and
// destination from config, service/version fields on every record, and
// a Component helper for per-subsystem child loggers.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a Logger from the logging section of config.yaml.
//
// Parameters:
//   - cfg: Logging configuration (level, format, output)
//   - version: Application version stamped on every record
//
// Returns:
//   - *Logger: Configured logger ready for use
func New(cfg config.LoggingConfig, version string) *Logger {
	handler := buildHandler(cfg).WithAttrs([]slog.Attr{
		slog.String("service", serviceName),
		slog.String("version", version),
	})
	return &Logger{Logger: slog.New(handler)}
}

// buildHandler resolves destination, format and level into a slog
// handler. JSON is the default format (production); "text" is for
// development.
func buildHandler(cfg config.LoggingConfig) slog.Handler {
	var out io.Writer = os.Stdout
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	if strings.EqualFold(cfg.Format, "text") {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}

// parseLevel converts a config level string to a slog.Level.
func parseLevel(level string) slog.Level {
	if l, ok := levelNames[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// Component returns a child logger tagged with a component name.
//
// Example:
//
//	ruleLog := logger.Component("rules")
//	ruleLog.Info("loaded") // Includes component=rules
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Default creates a stdout/JSON/info logger for use before the
// configuration is loaded. Only for early startup.
func Default() *Logger {
	return New(config.LoggingConfig{}, "dev")
}
