package telemetry

import "strings"

const redacted = "<redacted>"

type redactedError struct {
	err     error
	secrets []string
}

func (e redactedError) Error() string {
	return Redact(e.err.Error(), e.secrets...)
}

func (e redactedError) Unwrap() error {
	return e.err
}

// Redact replaces every occurrence of the non-empty `secrets` in text.
func Redact(text string, secrets ...string) string {
	for _, s := range secrets {
		if s == "" {
			continue
		}
		text = strings.ReplaceAll(text, s, redacted)
	}
	return text
}

// RedactError returns an error whose message has `secrets` removed, errors.Is and
// errors.As still see the wrapped error.
func RedactError(err error, secrets ...string) error {
	if err == nil || len(secrets) == 0 {
		return err
	}
	return redactedError{err: err, secrets: secrets}
}
