// Package userutil derives per-user names for OS objects shared between
// hushdesk processes.
package userutil

import (
	"os"
	"os/user"
	"regexp"
	"strings"
)

var invalidUsernameRune = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// lookupCurrentUser is a test seam.
var lookupCurrentUser = user.Current

// SanitizeUsername makes value safe for pipe, mutex and socket names.
func SanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return invalidUsernameRune.ReplaceAllString(value, "_")
}

// CurrentUsername returns the sanitized name of the user running the process.
func CurrentUsername() string {
	for _, key := range []string{"USERNAME", "USER"} {
		if name := strings.TrimSpace(os.Getenv(key)); name != "" {
			return SanitizeUsername(name)
		}
	}
	if current, err := lookupCurrentUser(); err == nil {
		return SanitizeUsername(current.Username)
	}
	return SanitizeUsername("")
}

// ObjectName returns "hushdesk-<user>" optionally followed by "-<suffix>".
func ObjectName(suffix string) string {
	name := "hushdesk-" + CurrentUsername()
	if suffix != "" {
		name += "-" + suffix
	}
	return name
}
