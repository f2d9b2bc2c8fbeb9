package malloc

import "sync/atomic"

import golog "github.com/bnclabs/golog"

var logok = int64(0)

// LogComponents enables logging for this package. By default logging is
// disabled; call this with "self" or "all" or "malloc" to turn it on.
func LogComponents(components ...string) {
	for _, comp := range components {
		switch comp {
		case "malloc", "self", "all":
			atomic.StoreInt64(&logok, 1)
		}
	}
}

func errorf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		golog.Errorf(format, v...)
	}
}

func warnf(format string, v ...interface{}) {
	if atomic.LoadInt64(&logok) > 0 {
		golog.Warnf(format, v...)
	}
}
