package cache

import (
	"testing"
	"time"
)

func TestMemoryStoreTTL(t *testing.T) {
	now := time.Date(2025, 9, 24, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.Now = func() time.Time { return now }

	s.Set("fg_remote_version", "1.3.0", 12*time.Hour)
	if v, ok := s.Get("fg_remote_version"); !ok || v != "1.3.0" {
		t.Fatalf("Get() = (%q, %v), want (1.3.0, true)", v, ok)
	}

	now = now.Add(11 * time.Hour)
	if _, ok := s.Get("fg_remote_version"); !ok {
		t.Errorf("entry expired too early")
	}

	now = now.Add(time.Hour)
	if _, ok := s.Get("fg_remote_version"); ok {
		t.Errorf("entry should have expired after 12h")
	}
}

func TestMemoryStoreOverwrite(t *testing.T) {
	s := NewMemoryStore()
	s.Set("k", "a", time.Minute)
	s.Set("k", "b", time.Minute)
	if v, _ := s.Get("k"); v != "b" {
		t.Errorf("Get() = %q, want b", v)
	}
	if _, ok := s.Get("missing"); ok {
		t.Errorf("missing key reported present")
	}
}

func TestOtterStore(t *testing.T) {
	s, err := NewOtterStore(128)
	if err != nil {
		t.Fatalf("NewOtterStore: %v", err)
	}
	defer s.Close()

	s.Set("fg_cc_abc", "PH", time.Hour)
	if v, ok := s.Get("fg_cc_abc"); !ok || v != "PH" {
		t.Errorf("Get() = (%q, %v), want (PH, true)", v, ok)
	}
}
