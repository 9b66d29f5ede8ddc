package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/viper"
)

// slogLogger adapts log/slog to the service logger interface.
type slogLogger struct {
	l *slog.Logger
}

func newLogger(verbose bool) slogLogger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slogLogger{l: slog.New(handler)}
}

func loggerFromFlags() slogLogger {
	verbose, _ := rootCmd.Flags().GetBool("verbose")
	if !verbose {
		verbose = viper.GetBool("verbose")
	}
	return newLogger(verbose)
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }
