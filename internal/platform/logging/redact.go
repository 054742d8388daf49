package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Attribute names whose values are never logged.
var redactedFields = []string{
	"password", "secret", "token", "cookie", "auth", "authorization",
	"apiKey", "apikey", "api_key",
	"accessToken", "access_token", "refreshToken", "refresh_token",
	"secretKey", "secret_key", "jwt_secret",
	"service_role_key", "stripe_signature",
}

var redactedPrefixes = []string{"secret", "private"}

// Value shapes redacted under any attribute name. Supabase service-role
// keys are JWTs.
var redactedValues = []*regexp.Regexp{
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^(bearer|basic)\s+.+$`),
	regexp.MustCompile(`^(sk|rk)_(live|test)_[A-Za-z0-9]+$`), // Stripe secret and restricted keys
	regexp.MustCompile(`^re_[A-Za-z0-9_]{8,}$`),              // Resend
}

// DefaultRedactOptions returns the masq options for the lists above.
func DefaultRedactOptions() []masq.Option {
	opts := make([]masq.Option, 0, len(redactedFields)+len(redactedPrefixes)+len(redactedValues))

	for _, name := range redactedFields {
		opts = append(opts, masq.WithFieldName(name))
	}
	for _, prefix := range redactedPrefixes {
		opts = append(opts, masq.WithFieldPrefix(prefix))
	}
	for _, re := range redactedValues {
		opts = append(opts, masq.WithRegex(re))
	}

	return opts
}

// NewReplaceAttr returns a slog ReplaceAttr applying DefaultRedactOptions
// plus opts.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	return masq.New(append(DefaultRedactOptions(), opts...)...)
}
