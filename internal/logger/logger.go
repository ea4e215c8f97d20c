package logger

import (
	"os"

	"github.com/phuslu/log"
)

// Init configures the process-wide structured logger. JSON lines on
// stdout, one event per line.
func Init() {
	log.DefaultLogger = log.Logger{
		Level:      log.InfoLevel,
		TimeField:  "time",
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Writer:     &log.IOWriter{Writer: os.Stdout},
	}
	log.Info().Msg("logger initialized")
}

func Info(msg string, fields map[string]any) {
	emit(log.Info(), msg, fields)
}

func Warn(msg string, fields map[string]any) {
	emit(log.Warn(), msg, fields)
}

func Error(msg string, fields map[string]any) {
	emit(log.Error(), msg, fields)
}

// Fatal logs the event and terminates the process.
func Fatal(msg string, fields map[string]any) {
	emit(log.Fatal(), msg, fields)
}

func emit(e *log.Entry, msg string, fields map[string]any) {
	if len(fields) > 0 {
		e = e.Fields(log.Fields(fields))
	}
	e.Msg(msg)
}
