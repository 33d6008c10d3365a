package env

import "os"

// Get returns the environment variable's value, or fallback when the variable
// is unset or empty. Empty values are treated as unset so that blank entries
// in a .env file do not silently override defaults.
func Get(key, fallback string) string {
	val, ok := os.LookupEnv(key)
	if !ok || val == "" {
		return fallback
	}
	return val
}
