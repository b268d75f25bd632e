// Package session reads the browser session the tool piggybacks on: the raw cookie
// string and the anti-forgery token the jobs API expects in the csrf-token header.
package session

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"
)

const SessionCookieName = "JSESSIONID"

var (
	quotedSessionRegex   = regexp.MustCompile(`^JSESSIONID="([^"]+)"`)
	unquotedSessionRegex = regexp.MustCompile(`^JSESSIONID=([^";]+)`)
)

// CSRFToken extracts the token from a cookie string ("a=b; JSESSIONID=\"ajax:123\"; ...").
// The JSESSIONID value itself is the token, quotes stripped.
func CSRFToken(cookies string) (string, bool) {
	for _, entry := range strings.Split(cookies, "; ") {
		entry = strings.TrimSpace(entry)
		if !strings.HasPrefix(entry, SessionCookieName+"=") {
			continue
		}
		if m := quotedSessionRegex.FindStringSubmatch(entry); len(m) == 2 {
			return m[1], true
		}
		// cookie jars and some exporters drop the quotes
		if m := unquotedSessionRegex.FindStringSubmatch(entry); len(m) == 2 {
			return m[1], true
		}
	}

	slog.Warn("could not find CSRF token", "cookie", SessionCookieName)
	return "", false
}

// CookieSource yields the current session cookie string.
type CookieSource interface {
	Cookies() (string, error)
}

// StaticCookies is a cookie string fixed at startup.
type StaticCookies string

func (s StaticCookies) Cookies() (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// CookieFile re-reads a file holding a copied Cookie header on every call,
// so a refreshed export is picked up without restarting.
type CookieFile string

func (f CookieFile) Cookies() (string, error) {
	contents, err := os.ReadFile(string(f))
	if err != nil {
		return "", fmt.Errorf("failed to read cookie file: %w", err)
	}
	value := strings.TrimSpace(string(contents))
	value = strings.TrimPrefix(value, "Cookie:")
	value = strings.TrimPrefix(value, "cookie:")
	return strings.TrimSpace(value), nil
}

// Token reads the cookie source fresh and extracts the CSRF token from it.
// Both values are returned since the request needs the full cookie string too.
func Token(src CookieSource) (cookies string, token string, ok bool) {
	if src == nil {
		slog.Error("no session cookie source configured")
		return "", "", false
	}
	cookies, err := src.Cookies()
	if err != nil {
		slog.Error("failed to read session cookies", "err", err)
		return "", "", false
	}
	token, ok = CSRFToken(cookies)
	return cookies, token, ok
}
