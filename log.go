package main

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

// parseLevel maps the config's log_level string onto a logrus level.
// "critical" has no logrus equivalent short of Fatal/Panic (which abort the
// process); it is logged via logrus.FatalLevel directly, never via Fatalf.
// "off" is not a logrus level at all and is handled by newLogger discarding
// output instead.
func parseLevel(level string) (logrus.Level, error) {
	switch level {
	case "trace":
		return logrus.TraceLevel, nil
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	case "critical":
		return logrus.FatalLevel, nil
	case "off":
		return logrus.PanicLevel, nil
	default:
		return 0, fmt.Errorf("unknown log_level %q", level)
	}
}

// newLogger builds the process-wide logrus logger for the given level name.
// "off" silences all output; every other level filters via logrus's usual
// severity ordering.
func newLogger(level string) (*logrus.Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level == "off" {
		logger.SetOutput(io.Discard)
		return logger, nil
	}
	logger.SetLevel(lvl)
	return logger, nil
}

// logCritical logs at the mapped "critical" severity. It never calls
// os.Exit itself; callers that need the process to terminate do so
// explicitly, per spec's "log critical; flush logs; exit" sequencing.
func logCritical(logger *logrus.Logger, format string, args ...interface{}) {
	logger.Log(logrus.FatalLevel, fmt.Sprintf(format, args...))
}
