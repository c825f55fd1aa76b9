package tui

import "time"

// Logger receives debug records for failed requests.
type Logger interface {
	Debug(msg any, keyvals ...any)
}

type Option func(*Model)

// WithLocale selects the message catalog, for example "en" or "ru".
func WithLocale(locale string) Option {
	return func(m *Model) {
		m.printer = newPrinter(locale)
	}
}

// WithToastDuration sets how long notifications stay visible. Zero keeps them until replaced.
func WithToastDuration(d time.Duration) Option {
	return func(m *Model) {
		m.toastDuration = d
	}
}

// WithProgressStep sets how far one slider key press moves the value.
func WithProgressStep(step float64) Option {
	return func(m *Model) {
		if step > 0 && step <= 100 {
			m.progressStep = step
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

func WithLogger(logger Logger) Option {
	return func(m *Model) {
		m.logger = logger
	}
}
