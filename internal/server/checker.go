package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"form_guard/internal/dataType"
	"form_guard/internal/guard"
	"form_guard/internal/rewrite"
	"form_guard/internal/utils"
	"io"
	"mime"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var contactFormFeedbackPath = regexp.MustCompile(`^/wp-json/contact-form-7/v1/contact-forms/(\d+)/feedback/?$`)

// contactFormFeedbackID matches a CF7 REST submission and returns its form id.
func contactFormFeedbackID(r *http.Request) (int, bool) {
	if r.Method != http.MethodPost {
		return 0, false
	}
	path := r.URL.Path
	if route := r.URL.Query().Get("rest_route"); route != "" && (path == "/" || path == "/index.php") {
		path = "/wp-json" + route
	}
	m := contactFormFeedbackPath.FindStringSubmatch(path)
	if m == nil {
		return 0, false
	}
	id, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// contactFormReply mirrors the shape of a CF7 feedback response so the
// form's own script renders the guard message.
type contactFormReply struct {
	ContactFormID  int      `json:"contact_form_id"`
	Status         string   `json:"status"`
	Message        string   `json:"message"`
	PostedDataHash string   `json:"posted_data_hash"`
	Into           string   `json:"into"`
	InvalidFields  []string `json:"invalid_fields"`
}

func (s *Server) handleContactFormFeedback(w http.ResponseWriter, r *http.Request, gc *guardContext, id int) {
	if !guard.ShouldSuppressContactForm(id, gc.settings.DisabledCF7Forms) {
		s.proxy.ServeHTTP(w, r)
		return
	}

	unitTag, _, err := peekFormValue(r, s.cfg.MaxBodyBytes, "_wpcf7_unit_tag")
	if err != nil {
		utils.LogDebug(gc.reqData, "unreadable contact form body", err.Error())
	}
	into := "#" + unitTag
	if unitTag == "" {
		into = fmt.Sprintf("#wpcf7-f%d-o1", id)
	}

	s.activity.Record(ActivityEvent{
		Kind:          EventSubmissionSuppressed,
		Host:          gc.reqData.Host,
		Country:       gc.country.Code,
		ContactFormID: id,
	})
	utils.LogInfo(gc.reqData, "contact form submission suppressed", strconv.Itoa(id))

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	err = json.NewEncoder(w).Encode(contactFormReply{
		ContactFormID: id,
		Status:        "mail_sent",
		Message:       gc.message,
		Into:          into,
		InvalidFields: []string{},
	})
	if err != nil {
		utils.LogError(gc.reqData, "Error writing response: "+err.Error(), "handleContactFormFeedback")
	}
}

// checkFormPost answers a plain CF7 form post (no JavaScript) with the
// guard notice instead of forwarding it. It reports whether it responded.
func (s *Server) checkFormPost(w http.ResponseWriter, r *http.Request, gc *guardContext) bool {
	if r.Method != http.MethodPost {
		return false
	}
	raw, found, err := peekFormValue(r, s.cfg.MaxBodyBytes, dataType.ContactFormIDField)
	if err != nil {
		utils.LogDebug(gc.reqData, "unreadable form body", err.Error())
		return false
	}
	if !found {
		return false
	}
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		id = -1
	}
	if !guard.ShouldSuppressContactForm(id, gc.settings.DisabledCF7Forms) {
		return false
	}

	s.activity.Record(ActivityEvent{
		Kind:          EventSubmissionSuppressed,
		Host:          gc.reqData.Host,
		Country:       gc.country.Code,
		ContactFormID: id,
	})
	utils.LogInfo(gc.reqData, "form post blocked", raw)

	data := rewrite.NewNoticeData(gc.message, gc.country.Code, r.Referer())
	data.EdgeTag = s.cfg.NodeName
	data.ConnectIP = gc.reqData.RemoteIP
	data.Date = time.Now().Format("2006-01-02 15:04:05")
	page, err := rewrite.Notice(s.notice, data)
	if err != nil {
		utils.LogError(gc.reqData, err.Error(), "checkFormPost")
		http.Error(w, "403 - Forbidden", http.StatusForbidden)
		return true
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	if _, err := w.Write(page); err != nil {
		utils.LogError(gc.reqData, "Error writing response: "+err.Error(), "checkFormPost")
	}
	return true
}

// peekFormValue reads one field of a urlencoded or multipart body while
// leaving the body intact for the upstream.
func peekFormValue(r *http.Request, limit int64, field string) (string, bool, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return "", false, nil
	}
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return "", false, nil
	}
	if mediaType != "application/x-www-form-urlencoded" && mediaType != "multipart/form-data" {
		return "", false, nil
	}

	buf, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return "", false, err
	}
	if int64(len(buf)) > limit {
		r.Body = readCloser{io.MultiReader(bytes.NewReader(buf), r.Body), r.Body}
		return "", false, fmt.Errorf("body exceeds %d bytes", limit)
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(buf))
	r.ContentLength = int64(len(buf))

	clone := r.Clone(r.Context())
	clone.Body = io.NopCloser(bytes.NewReader(buf))
	if mediaType == "multipart/form-data" {
		err = clone.ParseMultipartForm(limit)
	} else {
		err = clone.ParseForm()
	}
	if err != nil {
		return "", false, err
	}
	if clone.MultipartForm != nil {
		defer clone.MultipartForm.RemoveAll()
	}
	values, ok := clone.PostForm[field]
	if !ok || len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}
