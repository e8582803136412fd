package logger

import "os"

// ConfigFrom builds a logger configuration from plain settings, typically the
// log section of the loaded configuration.
func ConfigFrom(logLevel string, logJSON, logSource bool) *Config {
	return &Config{
		Level:      ParseLevel(logLevel),
		Output:     os.Stdout,
		JSON:       logJSON,
		AddSource:  logSource,
		TimeFormat: "15:04:05",
	}
}
