package runner

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"

	"casctl/internal/logging"
)

// LogWriter forwards subprocess output to a structured logger one line at a
// time, tagged with the originating stream. Partial lines are buffered until a
// newline arrives; Flush emits any trailing fragment.
type LogWriter struct {
	logger *slog.Logger
	stream string

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLogWriter builds a writer that logs lines at debug level.
func NewLogWriter(logger *slog.Logger, stream string) *LogWriter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogWriter{logger: logger, stream: stream}
}

func (w *LogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		line, err := w.buf.ReadString('\n')
		if err != nil {
			// Incomplete line, keep it buffered.
			w.buf.WriteString(line)
			break
		}
		w.emit(line)
	}
	return len(p), nil
}

// Flush logs any buffered partial line.
func (w *LogWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *LogWriter) emit(line string) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return
	}
	w.logger.Debug(line, logging.String(logging.FieldStream, w.stream))
}
