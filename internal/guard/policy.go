package guard

import (
	"form_guard/internal/action"
	"form_guard/internal/check"
	"form_guard/internal/dataType"
)

type CheckFunc func(dataType.FormInfo, []int, *action.Decision)

var formChecks = []CheckFunc{
	check.SearchForm,
	check.ContactForm,
	check.ForeignForm,
}

// Evaluate runs the form checks in order and returns the settled decision.
func Evaluate(form dataType.FormInfo, allowList []int) *action.Decision {
	decision := action.NewDecision()
	for _, checkFunc := range formChecks {
		checkFunc(form, allowList, decision)
		if decision.State == action.Done {
			break
		}
	}
	return decision
}

// ShouldDisable reports whether a form on a non-production page must be disabled.
func ShouldDisable(form dataType.FormInfo, allowList []int) bool {
	return Evaluate(form, allowList).Get() == action.Disable
}

// ShouldSuppressContactForm gates the server-side handling of a CF7
// submission: skipping delivery and replacing the status message.
func ShouldSuppressContactForm(id int, allowList []int) bool {
	if len(allowList) == 0 {
		return true
	}
	return check.ContactFormListed(id, allowList)
}
