package logging

import (
	"log/slog"
	"regexp"

	"github.com/m-mizutani/masq"
)

// Patterns for sensitive values that must never reach log output, even
// when they arrive through a backdrop context snapshot rather than an
// explicit attr.
var (
	jwtPattern    = regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`)
	bearerPattern = regexp.MustCompile(`(?i)^bearer\s+.+$`)
)

// DefaultRedactOptions returns the default masq options for secret
// redaction. Callers can extend the list:
//
//	opts := append(logging.DefaultRedactOptions(),
//	    masq.WithFieldName("MySecretField"),
//	)
func DefaultRedactOptions() []masq.Option {
	return []masq.Option{
		masq.WithFieldName("password"),
		masq.WithFieldName("secret"),
		masq.WithFieldName("token"),
		masq.WithFieldName("api_key"),
		masq.WithFieldName("apiKey"),
		masq.WithFieldName("access_token"),
		masq.WithFieldName("refresh_token"),
		masq.WithFieldName("authorization"),
		masq.WithFieldName("credential"),
		masq.WithFieldName("cookie"),
		masq.WithFieldName("session"),

		masq.WithFieldPrefix("secret"),
		masq.WithFieldPrefix("private"),

		masq.WithRegex(jwtPattern),
		masq.WithRegex(bearerPattern),
	}
}

// NewReplaceAttr creates a ReplaceAttr function for slog.HandlerOptions
// that redacts sensitive data. Because the BackdropHandler injects
// snapshot pairs as ordinary attrs before the output handler runs,
// redaction applies to context values as well.
func NewReplaceAttr(opts ...masq.Option) func(groups []string, a slog.Attr) slog.Attr {
	allOpts := append(DefaultRedactOptions(), opts...)
	return masq.New(allOpts...)
}
