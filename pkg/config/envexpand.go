package config

import "os"

// expandEnv expands ${VAR} and $VAR references inside a configuration
// value, so a composite setting like the vector-store DSN can be
// assembled from parts:
//
//   - postgres://reader:${DB_PASSWORD}@${DB_HOST}/tarot
//
// Missing variables expand to empty string; Validate catches required
// fields left empty that way.
func expandEnv(value string) string {
	return os.ExpandEnv(value)
}
