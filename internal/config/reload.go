package config

import (
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"
)

// Reloader returns a Watcher loader that rebuilds options from baseline, the
// flag defaults and CLI values as they were before LoadConfig first ran. Every
// reload goes through LoadConfig again, so flags and JACKBRIDGE_* variables
// keep winning over the file and keys removed from the file fall back to their
// defaults. A missing or malformed file is an error.
func Reloader[T any](baseline T, cmd *cobra.Command) func(path string) (T, error) {
	return func(path string) (T, error) {
		var zero T
		if _, err := os.Stat(path); err != nil {
			return zero, fmt.Errorf("failed to read config %s: %w", path, err)
		}

		opts := baseline
		if f := reflect.ValueOf(&opts).Elem().FieldByName("Config"); f.IsValid() && f.Kind() == reflect.String {
			f.SetString(path)
		}
		if err := LoadConfig(&opts, cmd); err != nil {
			return zero, err
		}
		return opts, nil
	}
}
