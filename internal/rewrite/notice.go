package rewrite

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
)

// NoticeFile is the operator template looked up in the error page dir.
const NoticeFile = "form_disabled.html"

// NoticeData is what a notice template renders.
type NoticeData struct {
	Lang      string
	Message   string
	Back      string
	EdgeTag   string
	ConnectIP string
	Date      string
}

func NewNoticeData(message, countryCode, back string) NoticeData {
	lang := "en"
	if countryCode == "PH" {
		lang = "fil"
	}
	return NoticeData{Lang: lang, Message: message, Back: back}
}

// LoadNotice parses {dir}/form_disabled.html. Without such a file the
// built-in page is returned.
func LoadNotice(dir string) (*template.Template, error) {
	if dir == "" {
		return noticeTemplate, nil
	}
	path := filepath.Join(dir, NoticeFile)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return noticeTemplate, nil
		}
		return nil, err
	}
	tpl, err := template.ParseFiles(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return tpl, nil
}

// Notice renders the stand-alone page answering a blocked form post. A nil
// tpl renders the built-in page.
func Notice(tpl *template.Template, data NoticeData) ([]byte, error) {
	if tpl == nil {
		tpl = noticeTemplate
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render notice: %w", err)
	}
	return buf.Bytes(), nil
}
