package store

import (
	"errors"
	"form_guard/internal/dataType"
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "form_guard.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSettingsDefaults(t *testing.T) {
	s := openTestStore(t)
	got, err := s.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if !reflect.DeepEqual(got, dataType.DefaultGuardSettings()) {
		t.Errorf("fresh store settings = %+v", got)
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	s := openTestStore(t)
	in := dataType.GuardSettings{
		Enabled:          true,
		AllowedHost:      " example.com ",
		DefaultMessage:   "closed",
		PHMessage:        "sarado",
		UseGeoAPI:        true,
		DisabledCF7Forms: []int{9, 3, 9, -1},
	}
	if err := s.SaveSettings(in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, err := s.Settings()
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	want := dataType.GuardSettings{
		Enabled:          true,
		AllowedHost:      "example.com",
		DefaultMessage:   "closed",
		PHMessage:        "sarado",
		UseGeoAPI:        true,
		DisabledCF7Forms: []int{3, 9},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Settings() = %+v, want %+v", got, want)
	}

	// overwrite and make sure the cached copy is dropped
	in.Enabled = false
	in.DefaultMessage = "  "
	if err := s.SaveSettings(in); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	got, _ = s.Settings()
	if got.Enabled {
		t.Error("Enabled should be false after second save")
	}
	if got.DefaultMessage != dataType.DefaultMessage {
		t.Errorf("blank message should fall back, got %q", got.DefaultMessage)
	}
}

func TestSettingsReturnsCopy(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveSettings(dataType.GuardSettings{Enabled: true, DisabledCF7Forms: []int{1}}); err != nil {
		t.Fatal(err)
	}
	a, _ := s.Settings()
	a.DisabledCF7Forms[0] = 42
	b, _ := s.Settings()
	if b.DisabledCF7Forms[0] != 1 {
		t.Errorf("cached settings were mutated: %v", b.DisabledCF7Forms)
	}
}

func TestSettingsFallsBackToLastKnown(t *testing.T) {
	s := openTestStore(t)
	saved := dataType.GuardSettings{Enabled: true, AllowedHost: "example.com", DisabledCF7Forms: []int{4}}
	if err := s.SaveSettings(saved); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Settings(); err != nil {
		t.Fatal(err)
	}
	s.invalidate()
	s.Close()

	got, err := s.Settings()
	if !errors.Is(err, ErrStaleSettings) {
		t.Fatalf("err = %v, want ErrStaleSettings", err)
	}
	if !got.Enabled || got.AllowedHost != "example.com" || !reflect.DeepEqual(got.DisabledCF7Forms, []int{4}) {
		t.Errorf("stale settings = %+v", got)
	}
}

func TestSettingsErrorWithoutCache(t *testing.T) {
	s := openTestStore(t)
	s.Close()
	_, err := s.Settings()
	if err == nil || errors.Is(err, ErrStaleSettings) {
		t.Errorf("err = %v, want a plain load error", err)
	}
}

func TestDecodeSettingsIgnoresGarbage(t *testing.T) {
	got := decodeSettings(map[string]string{
		optDisabledCF7Forms: `"not a list"`,
		optAllowedDomain:    "   ",
	})
	if len(got.DisabledCF7Forms) != 0 {
		t.Errorf("non-list ids should decode empty, got %v", got.DisabledCF7Forms)
	}
	if got.AllowedHost != dataType.DefaultAllowedHost {
		t.Errorf("blank host should keep default, got %q", got.AllowedHost)
	}
}

func TestContactFormRegistry(t *testing.T) {
	s := openTestStore(t)
	for _, f := range []struct {
		id    uint
		title string
	}{{12, "Contact"}, {7, ""}, {12, "Contact us"}, {12, ""}} {
		if err := s.SaveContactForm(f.id, f.title); err != nil {
			t.Fatalf("SaveContactForm(%d): %v", f.id, err)
		}
	}
	if err := s.SaveSettings(dataType.GuardSettings{Enabled: true, DisabledCF7Forms: []int{12}}); err != nil {
		t.Fatal(err)
	}

	forms, err := s.ContactForms()
	if err != nil {
		t.Fatalf("ContactForms: %v", err)
	}
	want := []dataType.ContactForm{
		{ID: 7, Title: "Contact form 7", Disabled: false},
		{ID: 12, Title: "Contact us", Disabled: true},
	}
	if !reflect.DeepEqual(forms, want) {
		t.Errorf("ContactForms() = %+v, want %+v", forms, want)
	}

	if err := s.DeleteContactForm(7); err != nil {
		t.Fatalf("DeleteContactForm: %v", err)
	}
	if err := s.DeleteContactForm(7); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
