// Package logging wires charmbracelet/log into the HTTP and storage layers.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	gormlogger "gorm.io/gorm/logger"
)

type Options struct {
	Level  string
	Format string
	Prefix string
}

// New builds a logger writing to stderr and installs it as the package default.
func New(opts Options) *log.Logger {
	logger := NewWithWriter(os.Stderr, opts)
	log.SetDefault(logger)
	return logger
}

func NewWithWriter(w io.Writer, opts Options) *log.Logger {
	level, err := log.ParseLevel(opts.Level)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	switch opts.Format {
	case "json":
		formatter = log.JSONFormatter
	case "logfmt":
		formatter = log.LogfmtFormatter
	}

	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
}

// RequestLogger logs one line per request once the handler chain has run.
func RequestLogger(logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"ip", c.ClientIP(),
		}
		if username := c.GetString("username"); username != "" {
			fields = append(fields, "user", username)
		}
		if requestID := c.GetString("request_id"); requestID != "" {
			fields = append(fields, "request_id", requestID)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			logger.Error("request", fields...)
		case status >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	}
}

// GormLogger routes gorm's SQL logging through logger at debug level. gorm
// still filters by its own level: slow queries and errors only, unless the
// application logger is itself at debug.
func GormLogger(logger *log.Logger, slowThreshold time.Duration) gormlogger.Interface {
	level := gormlogger.Warn
	if logger.GetLevel() <= log.DebugLevel {
		level = gormlogger.Info
	}

	std := logger.StandardLog(log.StandardLogOptions{ForceLevel: log.DebugLevel})
	return gormlogger.New(std, gormlogger.Config{
		SlowThreshold:             slowThreshold,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
