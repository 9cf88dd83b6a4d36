package errs

import (
	"os"
	"regexp"
	"strings"
)

// MaxExcerpt bounds the amount of subprocess output copied into an error.
const MaxExcerpt = 512

var (
	credentialsPattern = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^/\s:@]+(:[^/\s@]*)?@`)
	homeLinuxPattern   = regexp.MustCompile(`/home/[^/\s]+`)
	homeMacPattern     = regexp.MustCompile(`/Users/[^/\s]+`)
)

// Redact removes URL credentials and user home paths from msg.
func Redact(msg string) string {
	msg = credentialsPattern.ReplaceAllString(msg, "${1}<redacted>@")

	home, err := os.UserHomeDir()
	if err == nil && home != "" && home != "/" {
		msg = strings.ReplaceAll(msg, home, "$HOME")
	}

	msg = homeLinuxPattern.ReplaceAllString(msg, "/home/<user>")
	msg = homeMacPattern.ReplaceAllString(msg, "/Users/<user>")
	return msg
}

// Excerpt returns a redacted, length-bounded, trimmed rendering of captured
// output suitable for an error message.
func Excerpt(b []byte) string {
	if len(b) > MaxExcerpt {
		b = b[:MaxExcerpt]
		return Redact(strings.TrimSpace(string(b))) + "..."
	}
	return Redact(strings.TrimSpace(string(b)))
}
