package moodle

import "testing"

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in   string
		base string
		host string
		port string
	}{
		{"moodle.example.com", "http://moodle.example.com", "moodle.example.com", ""},
		{"https://example.com/moodle/", "https://example.com/moodle", "example.com", ""},
		{"https://example.com:8443", "https://example.com:8443", "example.com", "8443"},
		{"  http://10.0.0.5/lms  ", "http://10.0.0.5/lms", "10.0.0.5", ""},
		{"example.com:8080/moodle", "http://example.com:8080/moodle", "example.com", "8080"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			info := ParseTarget(tt.in)
			if info.BaseURL != tt.base {
				t.Errorf("BaseURL = %q, want %q", info.BaseURL, tt.base)
			}
			if info.Host != tt.host {
				t.Errorf("Host = %q, want %q", info.Host, tt.host)
			}
			if info.Port != tt.port {
				t.Errorf("Port = %q, want %q", info.Port, tt.port)
			}
		})
	}
}

func TestNormalizeTargetWithoutHost(t *testing.T) {
	for _, in := range []string{"   ", "http://", "https://", "https:///moodle"} {
		if got := NormalizeTarget(in); got != "" {
			t.Errorf("NormalizeTarget(%q) = %q, want empty", in, got)
		}
	}
}
