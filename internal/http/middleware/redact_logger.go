package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// maxQueryLogLength caps the logged query string.
const maxQueryLogLength = 2048

// RedactOptions configures RedactingLogger.
//
// MaskHeaders lists extra header names whose values are replaced with
// "[REDACTED]", on top of Authorization, Cookie and Set-Cookie. LogHeaders
// includes the scrubbed request headers in each access log line.
type RedactOptions struct {
	MaskHeaders []string
	LogHeaders  bool
}

var (
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits only, so hex runs inside ids and slugs never match.
	phoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
)

// Redact scrubs UUIDs, email addresses and phone numbers from s. UUIDs go
// first because the phone pattern would otherwise eat their digit groups.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactingLogger emits one access log line per request through the
// request-scoped logger, with PII scrubbed from the query string and
// sensitive headers masked. Bodies are never logged.
//
// Level is error for 5xx, warn for 4xx and info otherwise. Errors recorded on
// the context are already logged by the error boundary; only their count is
// added here.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			mask[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		query := truncate(Redact(c.Request.URL.RawQuery), maxQueryLogLength)

		var headers map[string]string
		if opts.LogHeaders {
			headers = make(map[string]string, len(c.Request.Header))
			for k, vv := range c.Request.Header {
				if _, ok := mask[strings.ToLower(k)]; ok {
					headers[k] = "[REDACTED]"
					continue
				}
				headers[k] = Redact(strings.Join(vv, ", "))
			}
		}

		c.Next()

		status := c.Writer.Status()
		lg := LoggerFrom(c)
		ev := lg.Info()
		switch {
		case status >= 500:
			ev = lg.Error()
		case status >= 400:
			ev = lg.Warn()
		}
		ev = ev.
			Str("query", query).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", Redact(c.Request.UserAgent())).
			Int64("bytes_in", c.Request.ContentLength).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start))
		if n := len(c.Errors); n > 0 {
			ev = ev.Int("errors", n)
		}
		if headers != nil {
			ev = ev.Interface("headers", headers)
		}
		ev.Msg("http_request")
	}
}
