package logging

import (
	"fmt"
	"sort"

	"github.com/ThreeDotsLabs/watermill"
	golog "github.com/ipfs/go-log/v2"
	"go.uber.org/zap"
)

// Logger returns the named logger of a subsystem
func Logger(name string) *zap.SugaredLogger {
	return &golog.Logger(name).SugaredLogger
}

// Setup configures every subsystem logger. format is one of json, plaintext or color.
func Setup(level, format string) error {
	lvl, err := golog.LevelFromString(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var f golog.LogFormat
	switch format {
	case "json", "":
		f = golog.JSONOutput
	case "plaintext":
		f = golog.PlaintextOutput
	case "color":
		f = golog.ColorizedOutput
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	golog.SetupLogging(golog.Config{
		Format: f,
		Level:  lvl,
		Stderr: true,
	})
	return nil
}

// WatermillAdapter routes watermill logs through zap
type WatermillAdapter struct {
	log *zap.SugaredLogger
}

// NewWatermillAdapter wraps log for watermill publishers and subscribers
func NewWatermillAdapter(log *zap.SugaredLogger) watermill.LoggerAdapter {
	return &WatermillAdapter{log: log}
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw(msg, append(keysAndValues(fields), "error", err)...)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow(msg, keysAndValues(fields)...)
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, keysAndValues(fields)...)
}

// Trace is logged at debug level, zap has nothing finer
func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw(msg, keysAndValues(fields)...)
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{log: a.log.With(keysAndValues(fields)...)}
}

func keysAndValues(fields watermill.LogFields) []interface{} {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]interface{}, 0, 2*len(keys))
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	return kv
}
