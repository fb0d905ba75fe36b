// Package raw reads the environment during bootstrap
// It must not import the logger: the logger configures itself through it
package raw

import (
	"os"
	"strconv"
	"strings"
)

// Conf is a prefixed env view
type Conf struct{ prefix string }

// New returns the unprefixed view
func New() Conf { return Conf{} }

// Prefix appends p to the prefix
func (c Conf) Prefix(p string) Conf { return Conf{prefix: c.prefix + p} }

func (c Conf) val(k string) string { return strings.TrimSpace(os.Getenv(c.prefix + k)) }

// Get returns the value or def
func (c Conf) Get(key, def string) string {
	if v := c.val(key); v != "" {
		return v
	}
	return def
}

// GetBool accepts 1, true, yes and on; anything else set is false
func (c Conf) GetBool(key string, def bool) bool {
	switch v := strings.ToLower(c.val(key)); v {
	case "":
		return def
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// GetInt returns a non-negative int or def
func (c Conf) GetInt(key string, def int) int {
	n, err := strconv.Atoi(c.val(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}
