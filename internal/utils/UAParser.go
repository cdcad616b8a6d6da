package utils

import (
	"fmt"

	"github.com/medama-io/go-useragent"
)

var uaParser = useragent.NewParser()

// SummarizeUserAgent condenses a browser UA into "Browser/OS" for log lines.
// Non-browser agents are returned unchanged.
func SummarizeUserAgent(inputUA string) string {
	if len(inputUA) < 8 || inputUA[:8] != "Mozilla/" {
		return inputUA
	}

	ua := uaParser.Parse(inputUA)
	if ua.IsBot() {
		return fmt.Sprintf("bot:%v", ua.Browser())
	}
	return fmt.Sprintf("%v/%v", ua.Browser(), ua.OS())
}
