package renderer

import (
	"io"
	"log"
	"os"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// DefaultLogger implements core.Logger on top of the standard log package
type DefaultLogger struct {
	logger *log.Logger
}

// Printf implements core.Logger
func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.logger.Printf(format, args...)
}

// NewDefaultLogger creates a logger writing timestamped lines to stderr
func NewDefaultLogger() core.Logger {
	return &DefaultLogger{logger: log.New(os.Stderr, "", log.LstdFlags)}
}

// NewDiscardLogger creates a logger that drops every message
func NewDiscardLogger() core.Logger {
	return &DefaultLogger{logger: log.New(io.Discard, "", 0)}
}
