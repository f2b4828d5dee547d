// Package logger provides the colorized slog handler the bot logs through.
package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorPurple = "\033[35m"
	colorWhite  = "\033[37m"
)

// LogType tags each record with the subsystem it came from, carried on the
// "type" attribute.
type LogType string

const (
	TypeCommand LogType = "CMD"
	TypeDB      LogType = "DB"
	TypeSystem  LogType = "SYS"
	TypeError   LogType = "ERR"
)

type Handler struct {
	opts  *slog.HandlerOptions
	attrs []slog.Attr
}

func NewHandler(level slog.Level) *Handler {
	return &Handler{
		opts: &slog.HandlerOptions{Level: level},
	}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		opts:  h.opts,
		attrs: append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}

func (h *Handler) WithGroup(_ string) slog.Handler {
	return h
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	if shouldSkipLog(&r) {
		return nil
	}

	var levelColor, levelText string
	switch r.Level {
	case slog.LevelDebug:
		levelColor, levelText = colorPurple, "DEBUG"
	case slog.LevelInfo:
		levelColor, levelText = colorGreen, "INFO"
	case slog.LevelWarn:
		levelColor, levelText = colorYellow, "WARN"
	default:
		levelColor, levelText = colorRed, "ERROR"
	}

	var attrsStr strings.Builder
	for _, attr := range h.attrs {
		if attr.Key != "type" {
			fmt.Fprintf(&attrsStr, " %s=%v", attr.Key, attr.Value)
		}
	}
	logType := TypeSystem
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "type" {
			switch a.Value.String() {
			case "cmd":
				logType = TypeCommand
			case "db":
				logType = TypeDB
			case "error":
				logType = TypeError
			}
			return true
		}
		fmt.Fprintf(&attrsStr, " %s=%v", a.Key, a.Value)
		return true
	})

	fmt.Printf("%s[SRCBot] [%s] [%s%s%s] [%s] %s%s%s\n",
		colorWhite,
		time.Now().Format("15:04:05"),
		levelColor,
		levelText,
		colorWhite,
		logType,
		r.Message,
		attrsStr.String(),
		colorReset,
	)
	return nil
}

// shouldSkipLog drops the gateway chatter disgo emits at debug level.
func shouldSkipLog(r *slog.Record) bool {
	skippedMessages := []string{
		"gateway event",
		"received gateway message",
		"opening gateway connection",
		"sending gateway command",
		"sending heartbeat",
		"locking buckets",
		"unlocking buckets",
		"new request",
		"new response",
		"locking rest bucket",
		"unlocking rest bucket",
		"rate limit response headers",
	}
	msg := strings.ToLower(r.Message)
	for _, skip := range skippedMessages {
		if strings.Contains(msg, skip) {
			return true
		}
	}
	return false
}
