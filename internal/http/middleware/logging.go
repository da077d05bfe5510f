// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides request correlation, structured access logging, and a
// panic-safe recovery handler:
//
//   - RequestID() ensures every request carries a stable correlation ID
//     (propagated via X-Request-ID and stored in the Gin context).
//   - AccessLogger() emits structured access logs with request/response
//     metadata, scrubbing donor emails and other obvious PII from query
//     strings and headers before anything is written. Donation traffic
//     regularly carries emails (donorEmail in checkout bodies, thank-you
//     redirects), so redaction is on by default rather than opt-in.
//   - Recovery() converts panics into JSON 500 responses while preserving
//     the correlation ID and emitting a stack trace to logs.
//   - LoggerFrom() retrieves the request-scoped logger for handlers and
//     services.
//
// Order matters: RequestID → AccessLogger → Recovery, so panics and errors
// include the correlation ID and are logged.
package middleware

import (
	"net/http"
	"regexp"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// requestIDHeader is the HTTP header used to propagate the correlation ID.
	requestIDHeader = "X-Request-ID"
	// loggerKey is the Gin context key for the request-scoped logger.
	loggerKey = "logger"
	// maxQueryLogLength caps the number of bytes of the raw query string logged.
	maxQueryLogLength = 2048
)

// Compiled once; emails first, then UUID-like ids (session ids in redirects).
var (
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	uuidRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
)

// maskedHeaders are fully replaced with "[REDACTED]" in access logs.
// Stripe-Signature is masked so log access never yields replayable headers.
var maskedHeaders = map[string]struct{}{
	"authorization":    {},
	"cookie":           {},
	"set-cookie":       {},
	"stripe-signature": {},
}

// RequestID attaches (or propagates) a correlation identifier per request.
//
// If the incoming request has X-Request-ID, that value is reused; otherwise
// a new UUIDv4 is generated. The ID is written back to the response header
// and stored in the Gin context. Place this first in the chain.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// redact scrubs emails and UUID-like identifiers from s.
func redact(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	return s
}

// AccessLogger writes one structured access log line per request and stores
// a request-scoped zerolog.Logger in the Gin context.
//
// Logged fields: method, route path (raw path when unmatched), scrubbed
// query, remote IP, user agent, scrubbed headers, correlation ID, request
// size, status, latency, and bytes written. Bodies are never logged.
//
// Level selection: error for 5xx (or Gin context errors), warn for 4xx,
// info otherwise.
func AccessLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid, _ := c.Get(requestIDKey)
		path := c.FullPath()
		if path == "" {
			// Fallback when route not matched / 404.
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Str("user_agent", c.Request.UserAgent()).
			Str("query", redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))).
			// ContentLength can be -1 if unknown.
			Int64("bytes_in", c.Request.ContentLength).
			Logger()

		// Make it available to handlers/services.
		c.Set(loggerKey, &l)

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		bytesOut := c.Writer.Size()

		ev := l.Info()
		switch {
		case status >= http.StatusInternalServerError || len(c.Errors) > 0:
			ev = l.Error()
		case status >= http.StatusBadRequest:
			ev = l.Warn()
		}
		ev.
			Int("status", status).
			Dur("latency", latency).
			Int("bytes_out", bytesOut).
			Fields(map[string]any{"headers": scrubHeaders(c.Request.Header)}).
			Msg("http request")
	}
}

// scrubHeaders returns a loggable copy of h with sensitive values masked and
// the rest redacted.
func scrubHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vv := range h {
		if _, ok := maskedHeaders[strings.ToLower(k)]; ok {
			out[k] = "[REDACTED]"
			continue
		}
		out[k] = redact(strings.Join(vv, ", "))
	}
	return out
}

// Recovery converts panics into a JSON 500 with the correlation ID and logs
// the stack trace. Place it after AccessLogger so the failure is recorded.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				rid, _ := c.Get(requestIDKey)
				LoggerFrom(c).Error().
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": asString(rid),
					"code":       "internal_error",
					"message":    "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger stored by AccessLogger, or
// the global logger when none is present (e.g. in tests).
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if c != nil {
		if v, ok := c.Get(loggerKey); ok {
			if l, ok := v.(*zerolog.Logger); ok && l != nil {
				return l
			}
		}
	}
	return &log.Logger
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
