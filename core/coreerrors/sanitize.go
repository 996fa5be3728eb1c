package coreerrors

import "strings"

// SecretPrefixes lists key-path prefixes whose values are stripped from
// sanitized error messages. Callers may override this slice at process
// startup (before any error crosses an embedder boundary) to add
// deployment-specific secret prefixes without forking the core.
var SecretPrefixes = []string{
	"secret:",
	"password",
	"token",
	"api_key",
	"apikey",
	"credential",
}

// Sanitizer strips sensitive substrings from error messages before they cross
// a trust boundary (external callers, embedder responses). Production builds
// should install a Sanitizer that redacts credentials and paths under secret
// prefixes; development builds may use Passthrough.
type Sanitizer interface {
	Sanitize(message string) string
}

// Passthrough returns the message unchanged. Suitable for local development
// and tests where sanitization would only obscure diagnostics.
type Passthrough struct{}

// Sanitize implements Sanitizer.
func (Passthrough) Sanitize(message string) string { return message }

// PrefixRedactor redacts any line or comma-separated field whose key matches
// one of SecretPrefixes (case-insensitive substring match), replacing the
// matched prefix together with its value with "[REDACTED]". It is a conservative, allocation-light sanitizer
// suitable as a production default; deployments with stricter requirements
// should supply their own Sanitizer.
type PrefixRedactor struct {
	Prefixes []string
}

// NewPrefixRedactor constructs a PrefixRedactor using SecretPrefixes, or the
// supplied prefixes if any are given.
func NewPrefixRedactor(prefixes ...string) *PrefixRedactor {
	if len(prefixes) == 0 {
		prefixes = SecretPrefixes
	}
	return &PrefixRedactor{Prefixes: prefixes}
}

// Sanitize implements Sanitizer by scanning key=value and key: value
// substrings for matches against the configured prefixes.
func (r *PrefixRedactor) Sanitize(message string) string {
	lower := strings.ToLower(message)
	out := message
	for _, prefix := range r.Prefixes {
		idx := 0
		for {
			pos := strings.Index(lower[idx:], strings.ToLower(prefix))
			if pos < 0 {
				break
			}
			start := idx + pos
			end := valueEnd(out, start+len(prefix))
			out = out[:start] + "[REDACTED]" + out[end:]
			lower = strings.ToLower(out)
			idx = start + len("[REDACTED]")
			if idx >= len(out) {
				break
			}
		}
	}
	return out
}

// valueEnd finds the end of a value following a matched prefix: it skips an
// optional '=' or ':' separator and any following whitespace, then consumes
// non-whitespace, non-comma runes as the value to redact.
func valueEnd(s string, from int) int {
	i := from
	for i < len(s) && (s[i] == '=' || s[i] == ':' || s[i] == ' ') {
		i++
	}
	start := i
	for i < len(s) && s[i] != ' ' && s[i] != ',' && s[i] != '\n' {
		i++
	}
	if i == start {
		return from
	}
	return i
}

// Envelope is the structured response wrapper returned by every top-level
// embedder invocation, per the external interface contract: a success
// carries Operation/Message/Result, an error carries Operation/Message/Field.
type Envelope struct {
	Operation string `json:"operation"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Result    any    `json:"result,omitempty"`
	Field     string `json:"field,omitempty"`
	Kind      Kind   `json:"kind,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Success builds a successful Envelope.
func Success(operation string, result any, warnings ...string) Envelope {
	return Envelope{Operation: operation, Success: true, Result: result, Warnings: warnings}
}

// Failure builds an error Envelope, sanitizing the message with s (Passthrough
// if s is nil).
func Failure(operation string, err error, s Sanitizer) Envelope {
	if s == nil {
		s = Passthrough{}
	}
	env := Envelope{Operation: operation, Success: false, Message: s.Sanitize(err.Error())}
	if e, ok := AsError(err); ok {
		env.Kind = e.Kind
		env.Field = e.Field
	}
	return env
}
