package clog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// newHandler 根据配置创建 slog.Handler，返回底层文件句柄以便 Flush
func newHandler(config *Config, o *options, level *slog.LevelVar) (slog.Handler, *os.File, error) {
	var (
		w    io.Writer
		file *os.File
	)

	switch {
	case o.writer != nil:
		w = o.writer
	case config.Output == "stdout":
		w = os.Stdout
	case config.Output == "stderr":
		w = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file %s: %w", config.Output, err)
		}
		w, file = f, f
	}

	ho := &slog.HandlerOptions{
		Level:       level,
		AddSource:   config.AddSource,
		ReplaceAttr: replaceAttr,
	}

	if strings.ToLower(config.Format) == "json" {
		return slog.NewJSONHandler(w, ho), file, nil
	}
	return slog.NewTextHandler(w, ho), file, nil
}

// replaceAttr 统一时间格式与级别名称，FatalLevel 在 slog 中显示为 ERROR+4
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		if t, ok := a.Value.Any().(interface{ Format(string) string }); ok {
			return slog.String(slog.TimeKey, t.Format(TimeFormat))
		}
	case slog.LevelKey:
		if lv, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, Level(lv).String())
		}
	}
	return a
}
