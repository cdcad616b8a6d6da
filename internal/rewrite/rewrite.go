package rewrite

import (
	"bytes"
	"fmt"
	"form_guard/internal/action"
	"form_guard/internal/dataType"
	"form_guard/internal/guard"
	"io"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Options controls how a non-production page is rewritten.
type Options struct {
	Message       string
	DisabledForms []int
}

// FoundForm is a Contact Form 7 form seen while rewriting.
type FoundForm struct {
	ID    int
	Title string
}

type Result struct {
	Body         []byte
	Disabled     int
	Spared       int
	ContactForms []FoundForm
	Injected     bool
	// Reasons counts forms by the check that settled them, as "check=action".
	Reasons map[string]int
}

// ReasonSummary renders Reasons in a stable order for log lines.
func (r *Result) ReasonSummary() string {
	keys := make([]string, 0, len(r.Reasons))
	for k := range r.Reasons {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+strconv.Itoa(r.Reasons[k]))
	}
	return strings.Join(parts, ",")
}

// Page marks the forms the policy disables and injects the banner, its
// style and the client script. A page that already carries the banner is
// not injected again. Fragments only get their forms marked.
func Page(body []byte, opts Options) (*Result, error) {
	if !IsDocument(body) {
		return pageFragment(body, opts)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	res := &Result{}
	var head, bodyNode *html.Node
	bannerPresent := false
	walk(doc, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Head:
			if head == nil {
				head = n
			}
		case atom.Body:
			if bodyNode == nil {
				bodyNode = n
			}
		case atom.Div:
			if hasClass(n, "fg-banner") {
				bannerPresent = true
			}
		case atom.Form:
			markForm(n, opts, res)
			// nested forms are invalid html; the parser never produces them
			return false
		}
		return true
	})

	if !bannerPresent && head != nil && bodyNode != nil {
		if err := inject(head, bodyNode, opts); err != nil {
			return nil, err
		}
		res.Injected = true
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render html: %w", err)
	}
	res.Body = buf.Bytes()
	return res, nil
}

// pageFragment handles partial markup such as AJAX responses. The page that
// loads it already has the banner and the client script.
func pageFragment(body []byte, opts Options) (*Result, error) {
	context := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(bytes.NewReader(body), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html fragment: %w", err)
	}

	res := &Result{}
	for _, root := range nodes {
		walk(root, func(n *html.Node) bool {
			if n.DataAtom == atom.Form {
				markForm(n, opts, res)
				return false
			}
			return true
		})
	}
	if res.Disabled == 0 {
		res.Body = body
		return res, nil
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return nil, fmt.Errorf("failed to render html: %w", err)
		}
	}
	res.Body = buf.Bytes()
	return res, nil
}

// IsDocument reports whether body is a whole page rather than a fragment:
// it has a doctype or an html, head or body start tag.
func IsDocument(body []byte) bool {
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.DoctypeToken:
			return true
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Html, atom.Head, atom.Body:
				return true
			}
		}
	}
}

func markForm(form *html.Node, opts Options, res *Result) {
	info, title := Classify(form)
	if info.IsContactForm && info.HasContactFormID {
		res.ContactForms = append(res.ContactForms, FoundForm{ID: info.ContactFormID, Title: title})
	}
	decision := guard.Evaluate(info, opts.DisabledForms)
	if res.Reasons == nil {
		res.Reasons = make(map[string]int)
	}
	res.Reasons[decision.Reason+"="+decision.Get().String()]++
	if decision.Get() == action.Disable {
		disableForm(form)
		res.Disabled++
	} else {
		res.Spared++
	}
}

// Classify extracts what the policy needs to know about a form element,
// plus the form's accessible label for the contact form registry.
func Classify(form *html.Node) (dataType.FormInfo, string) {
	info := dataType.FormInfo{
		Role:          strings.ToLower(strings.TrimSpace(attr(form, "role"))),
		IsContactForm: hasClass(form, dataType.ContactFormClass),
	}
	walk(form, func(n *html.Node) bool {
		if n == form || n.Type != html.ElementNode {
			return true
		}
		if hasClass(n, dataType.ContactFormClass) {
			info.IsContactForm = true
		}
		if n.DataAtom != atom.Input {
			return true
		}
		name := attr(n, "name")
		switch {
		case strings.EqualFold(attr(n, "type"), "search"):
			info.HasSearchInput = true
		case name == dataType.SearchQueryFieldName:
			info.HasSearchParam = true
		case name == dataType.ContactFormIDField && !info.HasContactFormID:
			if id, err := strconv.Atoi(strings.TrimSpace(attr(n, "value"))); err == nil {
				info.ContactFormID = id
				info.HasContactFormID = true
			}
		}
		return true
	})
	return info, attr(form, "aria-label")
}

func disableForm(form *html.Node) {
	if !hasClass(form, dataType.DisabledFormClass) {
		appendClass(form, dataType.DisabledFormClass)
	}
	walk(form, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Input, atom.Select, atom.Textarea, atom.Button:
			setAttr(n, "disabled", "disabled")
		}
		return true
	})
}

func inject(head, body *html.Node, opts Options) error {
	ids := opts.DisabledForms
	if ids == nil {
		ids = []int{}
	}
	data := struct {
		Message       string
		DisabledForms []int
	}{opts.Message, ids}

	var banner, script bytes.Buffer
	if err := bannerTemplate.Execute(&banner, data); err != nil {
		return fmt.Errorf("failed to render banner: %w", err)
	}
	if err := scriptTemplate.Execute(&script, data); err != nil {
		return fmt.Errorf("failed to render script: %w", err)
	}

	styleNodes, err := fragment(strings.NewReader(styleHTML), head)
	if err != nil {
		return err
	}
	for _, n := range styleNodes {
		head.AppendChild(n)
	}

	bannerNodes, err := fragment(&banner, body)
	if err != nil {
		return err
	}
	first := body.FirstChild
	for _, n := range bannerNodes {
		body.InsertBefore(n, first)
	}

	scriptNodes, err := fragment(&script, body)
	if err != nil {
		return err
	}
	for _, n := range scriptNodes {
		body.AppendChild(n)
	}
	return nil
}

func fragment(r io.Reader, context *html.Node) ([]*html.Node, error) {
	nodes, err := html.ParseFragment(r, context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}
	return nodes, nil
}

// walk visits n and its descendants depth first. Returning false from fn
// skips the children of the visited node.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		walk(c, fn)
		c = next
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func appendClass(n *html.Node, class string) {
	existing := strings.TrimSpace(attr(n, "class"))
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	setAttr(n, "class", existing+" "+class)
}
