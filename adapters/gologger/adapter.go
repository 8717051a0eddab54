package gologger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Resolve uses deterministic precedence provider > logger > nop.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Provider hands out named loggers that share one slog handler.
type Provider struct {
	handler slog.Handler
}

func NewProvider(opts Options) *Provider {
	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}
	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case FormatText:
		handler = slog.NewTextHandler(output, handlerOpts)
	default:
		handler = slog.NewJSONHandler(output, handlerOpts)
	}
	return &Provider{handler: handler}
}

func (p *Provider) GetLogger(name string) glog.Logger {
	if p == nil || p.handler == nil {
		return glog.Nop()
	}
	logger := slog.New(p.handler)
	if name = strings.TrimSpace(name); name != "" {
		logger = logger.With("logger", name)
	}
	return &Logger{base: logger, ctx: context.Background()}
}

type Logger struct {
	base *slog.Logger
	ctx  context.Context
}

func (l *Logger) Trace(msg string, args ...any) { l.log(slog.LevelDebug-4, msg, args) }
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.log(slog.LevelInfo, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(slog.LevelWarn, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

// Fatal logs at error level and exits the process.
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(slog.LevelError, msg, args)
	os.Exit(1)
}

func (l *Logger) WithContext(ctx context.Context) glog.Logger {
	if l == nil {
		return glog.Nop()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &Logger{base: l.base, ctx: ctx}
}

// WithFields binds fields to the logger. Args repeating a bound key are dropped.
func (l *Logger) WithFields(fields map[string]any) glog.Logger {
	if l == nil {
		return glog.Nop()
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return &boundLogger{Logger: &Logger{base: l.base.With(args...), ctx: l.ctx}, bound: keys}
}

func (l *Logger) log(level slog.Level, msg string, args []any) {
	if l == nil || l.base == nil {
		return
	}
	ctx := l.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	l.base.Log(ctx, level, msg, args...)
}

type boundLogger struct {
	*Logger
	bound []string
}

func (b *boundLogger) Trace(msg string, args ...any) { b.Logger.Trace(msg, b.strip(args)...) }
func (b *boundLogger) Debug(msg string, args ...any) { b.Logger.Debug(msg, b.strip(args)...) }
func (b *boundLogger) Info(msg string, args ...any)  { b.Logger.Info(msg, b.strip(args)...) }
func (b *boundLogger) Warn(msg string, args ...any)  { b.Logger.Warn(msg, b.strip(args)...) }
func (b *boundLogger) Error(msg string, args ...any) { b.Logger.Error(msg, b.strip(args)...) }
func (b *boundLogger) Fatal(msg string, args ...any) { b.Logger.Fatal(msg, b.strip(args)...) }

func (b *boundLogger) WithContext(ctx context.Context) glog.Logger {
	inner, ok := b.Logger.WithContext(ctx).(*Logger)
	if !ok {
		return glog.Nop()
	}
	return &boundLogger{Logger: inner, bound: b.bound}
}

func (b *boundLogger) strip(args []any) []any {
	if len(b.bound) == 0 || len(args) == 0 {
		return args
	}
	out := make([]any, 0, len(args))
	for idx := 0; idx < len(args); idx += 2 {
		key, ok := args[idx].(string)
		if ok && idx+1 < len(args) && b.isBound(key) {
			continue
		}
		out = append(out, args[idx])
		if idx+1 < len(args) {
			out = append(out, args[idx+1])
		}
	}
	return out
}

func (b *boundLogger) isBound(key string) bool {
	idx := sort.SearchStrings(b.bound, key)
	return idx < len(b.bound) && b.bound[idx] == key
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var (
	_ glog.LoggerProvider = (*Provider)(nil)
	_ glog.Logger         = (*Logger)(nil)
	_ glog.FieldsLogger   = (*Logger)(nil)
)
