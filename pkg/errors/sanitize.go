package errors

import (
	"regexp"
	"strings"
)

// SanitizeMode selects how aggressively Sanitize masks message content.
type SanitizeMode int

const (
	// SanitizeStrict masks secret-shaped blobs, labeled secret fields, and
	// file paths. This is the default outside development contexts.
	SanitizeStrict SanitizeMode = iota

	// SanitizeDevelopment masks secret-shaped blobs and labeled secret
	// fields but keeps file paths readable for debugging.
	SanitizeDevelopment
)

const redacted = "[redacted]"

var (
	// Labeled secret fields: key=..., "seed": "...", mnemonic: ... etc.
	labeledSecretRe = regexp.MustCompile(
		`(?i)("?(?:key|seed|entropy|mnemonic|passphrase|password)"?\s*[:=]\s*)("[^"]*"|'[^']*'|\S+)`)

	// Hex blobs of 32+ chars, with or without a 0x prefix.
	hexBlobRe = regexp.MustCompile(`(?i)\b(?:0x)?[0-9a-f]{32,}\b`)

	// Base64-looking runs of 40+ chars.
	base64BlobRe = regexp.MustCompile(`[A-Za-z0-9+/]{40,}={0,2}`)

	// Absolute file paths with at least two segments.
	filePathRe = regexp.MustCompile(`(?:/[\w.~-]+){2,}/?`)
)

// Sanitize masks sensitive substrings in an error or log message: hex blobs
// of 32+ characters, base64 blobs of 40+ characters, values of fields labeled
// key/seed/entropy/mnemonic/passphrase/password, and (in strict mode) file
// paths. The input is never mutated; a new string is returned.
func Sanitize(msg string, mode SanitizeMode) string {
	out := labeledSecretRe.ReplaceAllString(msg, "${1}"+redacted)
	out = hexBlobRe.ReplaceAllString(out, redacted)
	out = base64BlobRe.ReplaceAllString(out, redacted)
	if mode == SanitizeStrict {
		out = filePathRe.ReplaceAllString(out, "[path]")
	}
	return out
}

// SanitizeError returns a copy of err whose message, details, and suggestion
// have been passed through Sanitize. Non-Lantern errors are wrapped so the
// sanitized text is what callers see; the original remains reachable via
// Unwrap for errors.Is checks.
func SanitizeError(err error, mode SanitizeMode) error {
	if err == nil {
		return nil
	}

	var le *LanternError
	if !As(err, &le) {
		return &LanternError{
			Code:     "GENERAL_ERROR",
			Message:  Sanitize(err.Error(), mode),
			Cause:    err,
			ExitCode: ExitGeneral,
		}
	}

	clean := &LanternError{
		Code:       le.Code,
		Message:    Sanitize(le.Message, mode),
		Suggestion: Sanitize(le.Suggestion, mode),
		Cause:      le.Cause,
		ExitCode:   le.ExitCode,
	}
	if len(le.Details) > 0 {
		clean.Details = make(map[string]string, len(le.Details))
		for k, v := range le.Details {
			if isSecretLabel(k) {
				clean.Details[k] = redacted
				continue
			}
			clean.Details[k] = Sanitize(v, mode)
		}
	}
	return clean
}

func isSecretLabel(k string) bool {
	switch strings.ToLower(k) {
	case "key", "seed", "entropy", "mnemonic", "passphrase", "password":
		return true
	}
	return false
}
