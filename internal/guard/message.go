package guard

import (
	"form_guard/internal/dataType"
	"strings"
)

type Messages struct {
	Default string
	PH      string
}

// MessagesFrom picks the banner texts out of the settings, falling back to
// the built-in texts for blank values.
func MessagesFrom(s dataType.GuardSettings) Messages {
	return Messages{
		Default: orDefault(s.DefaultMessage, dataType.DefaultMessage),
		PH:      orDefault(s.PHMessage, dataType.DefaultMessagePH),
	}
}

// Select returns the Filipino text for PH visitors and the default otherwise.
func (m Messages) Select(countryCode string) string {
	if countryCode == "PH" {
		return orDefault(m.PH, dataType.DefaultMessagePH)
	}
	return orDefault(m.Default, dataType.DefaultMessage)
}

func orDefault(msg, def string) string {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return def
	}
	return msg
}
