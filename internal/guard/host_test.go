package guard

import "testing"

func TestNormalizeHost(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"WWW.Example.COM", "example.com"},
		{"example.com", "example.com"},
		{"  www.example.com  ", "example.com"},
		{"www.www.example.com", "www.example.com"},
		{"staging.example.com", "staging.example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeHost(tt.input); got != tt.want {
			t.Errorf("NormalizeHost(%q) = %q, want %q", tt.input, got, tt.want)
		}
		if once := NormalizeHost(tt.input); NormalizeHost(once) != once {
			t.Errorf("NormalizeHost not idempotent for %q", tt.input)
		}
	}
}

func TestIsNonProduction(t *testing.T) {
	tests := []struct {
		name       string
		current    string
		configured string
		enabled    bool
		want       bool
	}{
		{"guard disabled", "staging.bankofmakati.com.ph", "www.bankofmakati.com.ph", false, false},
		{"staging host", "staging.bankofmakati.com.ph", "www.bankofmakati.com.ph", true, true},
		{"www insensitive", "www.bankofmakati.com.ph", "bankofmakati.com.ph", true, false},
		{"case insensitive", "BankOfMakati.com.ph", "www.bankofmakati.com.ph", true, false},
		{"localhost", "localhost", "www.bankofmakati.com.ph", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNonProduction(tt.current, tt.configured, tt.enabled); got != tt.want {
				t.Errorf("IsNonProduction(%q, %q, %v) = %v, want %v", tt.current, tt.configured, tt.enabled, got, tt.want)
			}
		})
	}
}
