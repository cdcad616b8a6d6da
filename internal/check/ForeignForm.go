package check

import (
	"form_guard/internal/action"
	"form_guard/internal/dataType"
)

// ForeignForm handles every form that is neither a search nor a CF7 form.
// Selecting specific CF7 forms re-enables all of these.
func ForeignForm(form dataType.FormInfo, allowList []int, decision *action.Decision) {
	if len(allowList) == 0 {
		decision.SetResult(action.Done, action.Disable, "ForeignForm")
		return
	}
	decision.SetResult(action.Done, action.Spare, "ForeignForm")
}
