package check

import (
	"form_guard/internal/action"
	"form_guard/internal/dataType"
)

// SearchForm spares search forms before any other rule runs.
func SearchForm(form dataType.FormInfo, allowList []int, decision *action.Decision) {
	if form.IsSearch() {
		decision.SetResult(action.Done, action.Spare, "SearchForm")
		return
	}
	decision.Set(action.Continue)
}
