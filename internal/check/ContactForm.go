package check

import (
	"form_guard/internal/action"
	"form_guard/internal/dataType"
)

func ContactForm(form dataType.FormInfo, allowList []int, decision *action.Decision) {
	if !form.IsContactForm {
		decision.Set(action.Continue)
		return
	}

	// nothing selected keeps the old behaviour of disabling every CF7 form
	if len(allowList) == 0 {
		decision.SetResult(action.Done, action.Disable, "ContactForm")
		return
	}

	if form.HasContactFormID && ContactFormListed(form.ContactFormID, allowList) {
		decision.SetResult(action.Done, action.Disable, "ContactForm")
		return
	}
	decision.SetResult(action.Done, action.Spare, "ContactForm")
}

func ContactFormListed(id int, allowList []int) bool {
	for _, listed := range allowList {
		if listed == id {
			return true
		}
	}
	return false
}
