package services

import (
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"golang.org/x/net/idna"
)

var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// NormalizeURL parses raw as an absolute http(s) URL and returns the
// canonical form that gets persisted. Scheme and host are lower-cased,
// default ports are dropped and a bare host gains a "/" path; query and
// fragment are preserved. Normalizing the result again returns it unchanged.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", domain.ErrInvalidURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.Wrap(domain.KindInvalidInput, domain.ErrInvalidURL.Message, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", domain.NewError(domain.KindInvalidInput, "url must use the http or https scheme")
	}
	if u.Opaque != "" || u.Host == "" {
		return "", domain.ErrInvalidURL
	}

	host := u.Hostname()
	if host == "" {
		return "", domain.ErrInvalidURL
	}
	if !isASCII(host) {
		// internationalized names are stored in their xn-- form
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return "", domain.Wrap(domain.KindInvalidInput, domain.ErrInvalidURL.Message, err)
		}
		host = ascii
	}
	host = strings.ToLower(host)
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := u.Port(); port != "" && port != defaultPorts[u.Scheme] {
		host += ":" + port
	}
	u.Host = host

	if u.Path == "" {
		u.Path = "/"
		u.RawPath = ""
	}

	return u.String(), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// RedirectTarget prepares a stored URL for use as a redirect Location,
// defaulting to https when the value carries no scheme.
func RedirectTarget(stored string) (string, error) {
	target := strings.TrimSpace(stored)
	lower := strings.ToLower(target)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		target = "https://" + target
	}

	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return "", domain.NewError(domain.KindInvalidInput, "invalid redirect target")
	}
	return target, nil
}
