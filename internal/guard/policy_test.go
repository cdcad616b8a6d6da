package guard

import (
	"form_guard/internal/dataType"
	"reflect"
	"testing"
)

func TestShouldDisable(t *testing.T) {
	cf7 := func(id int) dataType.FormInfo {
		return dataType.FormInfo{IsContactForm: true, ContactFormID: id, HasContactFormID: true}
	}
	tests := []struct {
		name      string
		form      dataType.FormInfo
		allowList []int
		want      bool
	}{
		{"search role, empty list", dataType.FormInfo{Role: "search"}, nil, false},
		{"search input, empty list", dataType.FormInfo{HasSearchInput: true}, nil, false},
		{"search param on cf7", dataType.FormInfo{HasSearchParam: true, IsContactForm: true}, []int{1}, false},
		{"cf7 empty list", cf7(5), nil, true},
		{"cf7 listed", cf7(5), []int{5}, true},
		{"cf7 not listed", cf7(7), []int{5}, false},
		{"cf7 without id", dataType.FormInfo{IsContactForm: true}, []int{5}, false},
		{"other form empty list", dataType.FormInfo{}, nil, true},
		{"other form non-empty list", dataType.FormInfo{}, []int{5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldDisable(tt.form, tt.allowList); got != tt.want {
				t.Errorf("ShouldDisable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestShouldSuppressContactForm(t *testing.T) {
	if !ShouldSuppressContactForm(12, nil) {
		t.Error("empty list must suppress every CF7 submission")
	}
	if !ShouldSuppressContactForm(5, []int{3, 5}) {
		t.Error("listed form must be suppressed")
	}
	if ShouldSuppressContactForm(7, []int{3, 5}) {
		t.Error("unlisted form must go through")
	}
}

func TestSanitizeFormIDs(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []int
	}{
		{"mixed", []any{"3", "abc", 5, ""}, []int{3, 5}},
		{"json numbers", []any{float64(12), "7", float64(12)}, []int{7, 12}},
		{"negative dropped", []any{-1, "-4", 2}, []int{2}},
		{"strings", []string{" 9 ", "x"}, []int{9}},
		{"not a list", "3,5", []int{}},
		{"nil", nil, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeFormIDs(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SanitizeFormIDs(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
