// Package netguard validates navigation targets before the Browser Driver
// opens them, rejecting requests to the local network or non-http(s)
// schemes. Grounded on the teacher's URL validation (see
// recorder_preview_test.go / recorder_integration_test.go in the reference
// pack): this spec is silent on what targets are safe (§1 Out of scope only
// excludes slide content itself, not target-URL safety), so the same guard
// is carried forward.
package netguard

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// Validate rejects file:// and non-http(s) schemes, and rejects "localhost"
// and literal IPs that are loopback, private, link-local, or unspecified.
// Host names are not resolved, so a name that resolves to such an address
// passes.
//
// trustedBases are operator-configured origins (e.g. the Slidev deck's own
// base URL, which the Browser Driver must navigate to for every export) that
// are exempted from the loopback/private-IP check: the deck is a trusted,
// operator-deployed render target, not attacker-influenced input, and
// defaults to http://localhost:3030. Only the host+port need match; the
// scheme/protocol check above still applies unconditionally.
func Validate(rawURL string, trustedBases ...string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("invalid protocol: %s", scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("invalid url: missing host")
	}

	if isTrusted(u, trustedBases) {
		return nil
	}

	if strings.EqualFold(host, "localhost") {
		return fmt.Errorf("access to private IP 127.0.0.1")
	}

	ip := net.ParseIP(host)
	if ip == nil {
		// Not a literal IP; DNS resolution happens at navigation time inside
		// the browser process, which is out of this guard's reach. Literal
		// IPs and "localhost" are the checks we can make deterministically.
		return nil
	}

	if isDisallowed(ip) {
		return fmt.Errorf("access to private IP %s", ip.String())
	}
	return nil
}

// isTrusted reports whether u's host+port matches one of the
// operator-configured trusted base origins.
func isTrusted(u *url.URL, trustedBases []string) bool {
	for _, tb := range trustedBases {
		if tb == "" {
			continue
		}
		tu, err := url.Parse(tb)
		if err != nil {
			continue
		}
		if strings.EqualFold(tu.Hostname(), u.Hostname()) && tu.Port() == u.Port() {
			return true
		}
	}
	return false
}

func isDisallowed(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
