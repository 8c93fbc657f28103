package util

import (
	"os"
	"strconv"
)

func Getenv(key, def string) string {
	if val, found := os.LookupEnv(key); found {
		return val
	}
	return def
}

// GetenvBool is Getenv for boolean flags. Unparsable values yield def.
func GetenvBool(key string, def bool) bool {
	val, found := os.LookupEnv(key)
	if !found {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}
