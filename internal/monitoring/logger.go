// Package monitoring holds the shared diagnostic logger for the analysis
// and API packages.
package monitoring

import "log"

// LogFunc is the signature of the package logger.
type LogFunc func(format string, v ...any)

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// tests or embedding code can redirect or mute it with SetLogger.
var Logf LogFunc = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f LogFunc) {
	if f == nil {
		f = func(string, ...any) {}
	}
	Logf = f
}
