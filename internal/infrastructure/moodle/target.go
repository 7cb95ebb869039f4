package moodle

import (
	"net/url"
	"strings"
)

// TargetInfo contains parsed target information
type TargetInfo struct {
	Original string // Original target string
	Scheme   string // http or https
	Host     string // Hostname (without protocol, path, port)
	Port     string // Port if specified
	Path     string // Path of the Moodle root, without trailing slash
	BaseURL  string // Normalized base URL every endpoint path is appended to
}

// ParseTarget parses a target string into structured components.
// This handles various input formats:
//   - moodle.example.com
//   - http://example.com/moodle/
//   - https://example.com:8443
func ParseTarget(target string) *TargetInfo {
	info := &TargetInfo{Original: target}
	target = strings.TrimSpace(target)

	// a missing scheme means plain http
	if !strings.Contains(target, "://") {
		target = "http://" + target
	}
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" {
		return info
	}

	info.Scheme = parsed.Scheme
	info.Host = parsed.Hostname()
	info.Port = parsed.Port()
	info.Path = strings.TrimRight(parsed.Path, "/")

	base := url.URL{Scheme: parsed.Scheme, Host: parsed.Host, Path: info.Path}
	info.BaseURL = base.String()
	return info
}

// NormalizeTarget returns the base URL for target, or "" when it has no host.
func NormalizeTarget(target string) string {
	info := ParseTarget(target)
	if info.Host == "" {
		return ""
	}
	return info.BaseURL
}
