package versiongate

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// LookupFunc resolves a build environment variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// get treats an unset variable and an empty one alike.
func (f LookupFunc) get(key string) string {
	if f == nil {
		return ""
	}
	v, _ := f(key)
	return v
}

// MapLookup serves variables from a fixed map.
func MapLookup(vars map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// ChainLookup asks each lookup in order and returns the first non-empty value.
func ChainLookup(lookups ...LookupFunc) LookupFunc {
	return func(key string) (string, bool) {
		found := false
		for _, l := range lookups {
			if l == nil {
				continue
			}
			v, ok := l(key)
			if v != "" {
				return v, true
			}
			found = found || ok
		}
		return "", found
	}
}

// DotenvLookup layers the given dotenv files under the process environment:
// a variable set in the environment wins over the same key in a file.
func DotenvLookup(paths ...string) (LookupFunc, error) {
	vars, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("read env file: %w", err)
	}
	return ChainLookup(os.LookupEnv, MapLookup(vars)), nil
}
