// Package netutil labels Bot API and transport errors for logs and retries.
package netutil

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"syscall"

	tele "gopkg.in/telebot.v4"
)

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

type rule struct {
	kind  string
	match func(error) bool
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func timedOut(err error) bool {
	var ne net.Error
	return errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout())
}

func dialFailed(err error) bool {
	var op *net.OpError
	return errors.As(err, &op) && op.Op == "dial"
}

// rules are checked in order; the first match names the error.
var rules = []rule{
	{"blocked", is(tele.ErrBlockedByUser)},
	{"not_modified", is(tele.ErrSameMessageContent)},
	{"timeout", timedOut},
	{"canceled", is(context.Canceled)},
	{"dns", func(err error) bool {
		var dns *net.DNSError
		return errors.As(err, &dns)
	}},
	{"dial", dialFailed},
	{"tls", func(err error) bool {
		var alert tls.AlertError
		var verify *tls.CertificateVerificationError
		return errors.As(err, &alert) || errors.As(err, &verify)
	}},
}

// Classify returns a short error_kind label for err, "" for nil and
// "unknown" when nothing matches.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, r := range rules {
		if r.match(err) {
			return r.kind
		}
	}
	switch code := StatusFromError(err); {
	case code == http.StatusTooManyRequests:
		return "flood"
	case code >= 500:
		return "http_5xx"
	case code >= 400:
		return "http_4xx"
	}
	return "unknown"
}

// ShouldRetry reports whether err is a transient transport failure: a
// timeout, a refused dial or a connection dropped mid-request.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	return timedOut(err) || dialFailed(err) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// StatusFromError returns the Bot API status code carried by err, falling
// back to a trailing "(NNN)" in the message. Zero means none.
func StatusFromError(err error) int {
	var apiErr *tele.Error
	var flood tele.FloodError
	var group tele.GroupError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &apiErr):
		return apiErr.Code
	case errors.As(err, &flood):
		return http.StatusTooManyRequests
	case errors.As(err, &group):
		return http.StatusBadRequest
	}
	msg := strings.TrimSpace(err.Error())
	if !strings.HasSuffix(msg, ")") {
		return 0
	}
	open := strings.LastIndexByte(msg, '(')
	if open < 0 {
		return 0
	}
	code, convErr := strconv.Atoi(msg[open+1 : len(msg)-1])
	if convErr != nil {
		return 0
	}
	return code
}

// Redact returns err's message with bot tokens masked.
func Redact(err error) string {
	if err == nil {
		return ""
	}
	return tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
}
