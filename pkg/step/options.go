package step

import "time"

// Option adjusts a single step invocation.
type Option func(*options)

type options struct {
	json       bool
	allowFail  bool
	env        map[string]string
	timeout    time.Duration
	timeoutSet bool
}

// JSON captures stdout and parses it as one JSON document.
func JSON() Option {
	return func(o *options) { o.json = true }
}

// AllowFail tolerates a non-zero exit and unparseable JSON. Timeouts stay
// fatal.
func AllowFail() Option {
	return func(o *options) { o.allowFail = true }
}

// Env adds or replaces one variable of the child environment.
func Env(key, value string) Option {
	return func(o *options) {
		if o.env == nil {
			o.env = make(map[string]string)
		}
		o.env[key] = value
	}
}

// Timeout bounds the step. A non-positive d disables the bound, including
// the chat-send default.
func Timeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
		o.timeoutSet = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
