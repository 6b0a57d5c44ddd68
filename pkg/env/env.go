// Package env reads raw environment variables for the few lookups that
// happen before envconfig parsing, such as log output format.
package env

import "os"

// Get returns the variable's value, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
