package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"padlink/internal/config"
)

var (
	writerMu     sync.Mutex
	activeWriter io.Writer = os.Stdout
)

// Init configures the global zerolog logger from config: level, console
// output, sampling, and an optional size-limited log file.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil {
			level = parsed
		}
	}

	var output io.Writer = os.Stdout
	if cfg.File != "" {
		if fw, err := newSizeLimitedWriter(cfg.File, cfg.MaxMB); err == nil {
			output = fw
		}
	}
	setWriter(output)
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).With().Timestamp().Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger
}

// Writer returns the destination log messages go to, so the HTTP request
// logger can share it.
func Writer() io.Writer {
	writerMu.Lock()
	defer writerMu.Unlock()
	return activeWriter
}

func setWriter(w io.Writer) {
	writerMu.Lock()
	defer writerMu.Unlock()
	activeWriter = w
}
