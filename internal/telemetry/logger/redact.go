package logger

import (
	"log/slog"
	"strings"
)

// credentialPrefixes mark a value as a credential whatever its key:
// an Authorization header value and the base64url JSON header of a JWT.
var credentialPrefixes = []string{"Bearer ", "eyJ"}

// sensitiveKeyParts mark a key whose string value is never logged.
var sensitiveKeyParts = []string{
	"password",
	"secret",
	"token",
	"credential",
	"authorization",
	"encryption_key",
}

// RedactedValue replaces the values of sensitive keys.
const RedactedValue = "***REDACTED***"

// redactSensitive is the ReplaceAttr hook of every handler built by New.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		if masked := RedactString(s); masked != s {
			return slog.String(a.Key, masked)
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, RedactedValue)
		}
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, 0, len(group))
		for _, attr := range group {
			out = append(out, redactSensitive(attr))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// RedactString masks a credential-looking value, keeping its prefix and
// last 4 characters. Other values are returned unchanged.
func RedactString(value string) string {
	for _, prefix := range credentialPrefixes {
		rest, ok := strings.CutPrefix(value, prefix)
		if !ok {
			continue
		}
		if len(rest) <= 8 {
			return prefix + "***"
		}
		return prefix + "***" + rest[len(rest)-4:]
	}
	return value
}

// IsSensitiveKey reports whether a key name suggests a secret value.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}
