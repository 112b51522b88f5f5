package logging

import (
	"cbrrates/internal/config"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Setup configures the global logrus logger: level from config (info when invalid),
// output to stdout plus the optional log file. The returned close func releases the file.
func Setup(cfg config.Logging) (func() error, error) {
	if parsedLvl, parseErr := logrus.ParseLevel(cfg.Level); parseErr != nil {
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(parsedLvl)
	}
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.File == "" {
		logrus.SetOutput(os.Stdout)
		return func() error { return nil }, nil
	}

	f, err := os.OpenFile(cfg.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		logrus.SetOutput(os.Stdout)
		return func() error { return nil }, fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
	}
	logrus.SetOutput(io.MultiWriter(os.Stdout, f))
	return f.Close, nil
}
