package transport

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/shaveenudayanga/lumina/internal/metrics"
)

// SerialChannel adapts a local line-oriented stream (a console, a UART
// bridge) into the dispatch queue. Replies are written back to the same
// stream.
type SerialChannel struct {
	r      io.Reader
	w      io.Writer
	logger *zap.Logger
}

// NewSerialChannel wraps the given stream pair.
func NewSerialChannel(r io.Reader, w io.Writer, logger *zap.Logger) *SerialChannel {
	return &SerialChannel{r: r, w: w, logger: logger}
}

// Run scans lines into the dispatch queue until the reader ends. Runs on
// its own goroutine.
func (ch *SerialChannel) Run(lines chan<- Line) {
	scanner := bufio.NewScanner(ch.r)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		metrics.CommandsDispatched.WithLabelValues("serial").Inc()
		lines <- Line{
			Text:   text,
			Source: "serial",
			Reply:  ch.reply,
		}
	}
	if err := scanner.Err(); err != nil {
		ch.logger.Debug("serial channel closed", zap.Error(err))
	}
}

func (ch *SerialChannel) reply(line string) {
	if ch.w == nil {
		return
	}
	if _, err := io.WriteString(ch.w, line+"\n"); err != nil {
		ch.logger.Debug("serial reply failed", zap.Error(err))
	}
}
