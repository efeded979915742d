package config

import (
	"net/netip"
	"net/url"
	"strings"
)

// IsPublicHTTPSURL reports whether rawURL can be reached by ARC from the public internet:
// an https URL whose host is neither localhost nor a loopback, private or unspecified address.
func IsPublicHTTPSURL(rawURL string) bool {
	if rawURL == "" {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	if host == "" || strings.EqualFold(host, "localhost") {
		return false
	}

	addr, err := netip.ParseAddr(host)
	if err != nil {
		return true
	}
	return !(addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast())
}
