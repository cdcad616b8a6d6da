package check

import (
	"form_guard/internal/action"
	"form_guard/internal/dataType"
	"testing"
)

func TestContactForm(t *testing.T) {
	tests := []struct {
		name      string
		form      dataType.FormInfo
		allowList []int
		wantState action.State
		want      action.Action
	}{
		{"not cf7", dataType.FormInfo{}, nil, action.Continue, action.Undecided},
		{"empty list", dataType.FormInfo{IsContactForm: true, ContactFormID: 9, HasContactFormID: true}, nil, action.Done, action.Disable},
		{"listed", dataType.FormInfo{IsContactForm: true, ContactFormID: 5, HasContactFormID: true}, []int{5}, action.Done, action.Disable},
		{"not listed", dataType.FormInfo{IsContactForm: true, ContactFormID: 7, HasContactFormID: true}, []int{5}, action.Done, action.Spare},
		{"missing id", dataType.FormInfo{IsContactForm: true}, []int{5}, action.Done, action.Spare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := action.NewDecision()
			ContactForm(tt.form, tt.allowList, d)
			if d.State != tt.wantState || d.Get() != tt.want {
				t.Errorf("ContactForm() = (%v, %v), want (%v, %v)", d.State, d.Get(), tt.wantState, tt.want)
			}
		})
	}
}

func TestSearchForm(t *testing.T) {
	for _, form := range []dataType.FormInfo{
		{Role: "search"},
		{HasSearchInput: true},
		{HasSearchParam: true, IsContactForm: true},
	} {
		d := action.NewDecision()
		SearchForm(form, nil, d)
		if d.State != action.Done || d.Get() != action.Spare {
			t.Errorf("SearchForm(%+v) did not spare the form", form)
		}
	}

	d := action.NewDecision()
	SearchForm(dataType.FormInfo{Role: "form"}, nil, d)
	if d.State != action.Continue {
		t.Errorf("expected non-search form to continue")
	}
}

func TestForeignForm(t *testing.T) {
	d := action.NewDecision()
	ForeignForm(dataType.FormInfo{}, nil, d)
	if d.Get() != action.Disable {
		t.Errorf("expected disable with empty list, got %v", d.Get())
	}

	d = action.NewDecision()
	ForeignForm(dataType.FormInfo{}, []int{3}, d)
	if d.Get() != action.Spare {
		t.Errorf("expected spare with non-empty list, got %v", d.Get())
	}
}
