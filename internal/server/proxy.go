package server

import (
	"bytes"
	"context"
	"fmt"
	"form_guard/internal/dataType"
	"form_guard/internal/rewrite"
	"form_guard/internal/utils"
	"io"
	"mime"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strconv"
	"time"
)

// guardContext carries the per-request guard state to the response side
// of the proxy.
type guardContext struct {
	reqData  dataType.UserRequest
	settings dataType.GuardSettings
	country  dataType.CountryResult
	message  string
}

type guardContextKey struct{}

func withGuardContext(ctx context.Context, gc *guardContext) context.Context {
	return context.WithValue(ctx, guardContextKey{}, gc)
}

func guardContextFrom(ctx context.Context) *guardContext {
	gc, _ := ctx.Value(guardContextKey{}).(*guardContext)
	return gc
}

const seenFormTTL = time.Hour

func (s *Server) newReverseProxy(upstream *url.URL) *httputil.ReverseProxy {
	proxy := httputil.NewSingleHostReverseProxy(upstream)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		originalHost := req.Host
		director(req)
		if req.Header.Get("X-Forwarded-Host") == "" {
			req.Header.Set("X-Forwarded-Host", originalHost)
		}
	}
	proxy.ModifyResponse = s.modifyResponse
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		reqData := dataType.UserRequest{Uri: r.URL.RequestURI(), Host: r.Host}
		if gc := guardContextFrom(r.Context()); gc != nil {
			reqData = gc.reqData
		}
		utils.LogError(reqData, fmt.Sprintf("Error proxying request: %v", err), "ReverseProxy")
		http.Error(w, "502 - Bad Gateway", http.StatusBadGateway)
	}
	return proxy
}

// modifyResponse rewrites HTML pages served on a non-production host.
// Anything it cannot safely rewrite passes through untouched.
func (s *Server) modifyResponse(resp *http.Response) error {
	gc := guardContextFrom(resp.Request.Context())
	if gc == nil || !isRewritable(resp) {
		return nil
	}

	limit := s.cfg.MaxBodyBytes
	buf, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return err
	}
	if int64(len(buf)) > limit {
		utils.LogInfo(gc.reqData, "response too large to rewrite", strconv.Itoa(len(buf)))
		resp.Body = readCloser{io.MultiReader(bytes.NewReader(buf), resp.Body), resp.Body}
		return nil
	}
	resp.Body.Close()

	result, err := rewrite.Page(buf, rewrite.Options{
		Message:       gc.message,
		DisabledForms: gc.settings.DisabledCF7Forms,
	})
	if err != nil {
		utils.LogError(gc.reqData, fmt.Sprintf("Error rewriting page: %v", err), "modifyResponse")
		setBody(resp, buf)
		return nil
	}

	s.registerContactForms(gc, result.ContactForms)
	s.activity.Record(ActivityEvent{
		Kind:     EventPageGuarded,
		Host:     gc.reqData.Host,
		Country:  gc.country.Code,
		Disabled: result.Disabled,
	})
	utils.LogInfo(gc.reqData, "page guarded",
		fmt.Sprintf("disabled=%d spared=%d country=%s reasons=%s", result.Disabled, result.Spared, gc.country.Code, result.ReasonSummary()))

	setBody(resp, result.Body)
	resp.Header.Del("ETag")
	resp.Header.Add("Vary", "Cookie")
	return nil
}

func isRewritable(resp *http.Response) bool {
	if resp.Request.Method == http.MethodHead || resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotModified {
		return false
	}
	if enc := resp.Header.Get("Content-Encoding"); enc != "" && enc != "identity" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/html"
}

func setBody(resp *http.Response, body []byte) {
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
}

type readCloser struct {
	io.Reader
	io.Closer
}

// registerContactForms adds CF7 forms seen on pages to the registry so the
// admin API can list them.
func (s *Server) registerContactForms(gc *guardContext, forms []rewrite.FoundForm) {
	for _, f := range forms {
		if f.ID <= 0 {
			continue
		}
		key := "fg_cf7_seen_" + strconv.Itoa(f.ID)
		if _, seen := s.cache.Get(key); seen {
			continue
		}
		if err := s.store.SaveContactForm(uint(f.ID), f.Title); err != nil {
			utils.LogError(gc.reqData, fmt.Sprintf("Error registering contact form %d: %v", f.ID, err), "registerContactForms")
			continue
		}
		s.cache.Set(key, "1", seenFormTTL)
	}
}
