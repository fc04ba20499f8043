package service

import "testing"

func TestNewSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token := NewSessionToken()
		if len(token) != 64 {
			t.Fatalf("token length = %d, want 64 hex characters", len(token))
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}
