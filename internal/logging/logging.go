package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mengelbart/framebridge"
)

type Format string

const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

func Configure(format Format, level slog.Level, writer io.Writer) {
	if writer == nil {
		writer = os.Stderr
	}
	ho := &slog.HandlerOptions{
		AddSource:   false,
		Level:       level,
		ReplaceAttr: nil,
	}
	switch format {
	case JSONFormat:
		slog.SetDefault(slog.New(slog.NewJSONHandler(writer, ho)))
	case TextFormat:
		slog.SetDefault(slog.New(slog.NewTextHandler(writer, ho)))
	default:
		panic(fmt.Sprintf("unexpected logging.format: %#v", format))
	}
}

type FrameLogger struct {
	logger *slog.Logger
}

func NewFrameLogger(vantagePoint string, logger *slog.Logger) *FrameLogger {
	if logger == nil {
		logger = slog.Default().With("vantage-point", vantagePoint).WithGroup("frame")
	}
	return &FrameLogger{
		logger: logger,
	}
}

func (l *FrameLogger) LogFrame(f *framebridge.Frame) {
	l.logger.Info(
		"frame",
		"seq", f.Seq,
		"width", f.Width,
		"height", f.Height,
		"bytes", len(f.Data),
		"stride-inferred", f.StrideInferred,
		"trace-id", f.TraceID,
	)
}
