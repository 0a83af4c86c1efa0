package engine

import "github.com/rs/zerolog"

// zerologAdapter satisfies Logger with github.com/rs/zerolog, the
// structured logger the cortex family of example repos standardizes on
// (normanking-cortexavatar, normanking-cortex, RedClaus-cortex-coder-agent
// all construct a root zerolog.Logger and pass it down through their call
// trees the same way this adapter is threaded through the driver).
type zerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologLogger wraps an existing zerolog.Logger as an engine Logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return zerologAdapter{logger: logger}
}

func (z zerologAdapter) With(key string, value any) Logger {
	return zerologAdapter{logger: z.logger.With().Interface(key, value).Logger()}
}

func (z zerologAdapter) Info(msg string, args ...any) {
	logWithFields(z.logger.Info(), msg, args)
}

func (z zerologAdapter) Warn(msg string, args ...any) {
	logWithFields(z.logger.Warn(), msg, args)
}

func (z zerologAdapter) Error(msg string, args ...any) {
	logWithFields(z.logger.Error(), msg, args)
}

func (z zerologAdapter) Debug(msg string, args ...any) {
	logWithFields(z.logger.Debug(), msg, args)
}

// logWithFields interprets args as alternating key/value pairs, matching
// the variadic Logger.Info(msg, args...) contract.
func logWithFields(event *zerolog.Event, msg string, args []any) {
	for i := 0; i+1 < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		event = event.Interface(key, args[i+1])
	}
	event.Msg(msg)
}
