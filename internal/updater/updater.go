package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"form_guard/internal/cache"
	"form_guard/internal/dataType"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/blang/semver"
)

const (
	MethodGitHub    = "github"
	MethodServer    = "server"
	MethodWordPress = "wordpress"
	MethodNone      = "none"

	RemoteVersionKey = "fg_remote_version"
	RemoteVersionTTL = 12 * time.Hour

	defaultTimeout = 10 * time.Second
	userAgent      = "Form Guard Proxy"
	maxBody        = 1 << 20
)

var DefaultGitHubAPI = "https://api.github.com"

type Client struct {
	Method         string
	GitHubRepo     string
	Server         string
	Slug           string
	CurrentVersion string
	GitHubAPI      string
	HTTPClient     *http.Client
	Cache          cache.Store
}

// Release is the outcome of an update check.
type Release struct {
	CurrentVersion string `json:"current_version"`
	RemoteVersion  string `json:"remote_version"`
	HasUpdate      bool   `json:"has_update"`
	Package        string `json:"package"`
	URL            string `json:"url"`
	Slug           string `json:"slug"`
}

type PluginInfo struct {
	Name         string            `json:"name"`
	Slug         string            `json:"slug"`
	Version      string            `json:"version"`
	Author       string            `json:"author"`
	Homepage     string            `json:"homepage"`
	Requires     string            `json:"requires"`
	Tested       string            `json:"tested"`
	RequiresPHP  string            `json:"requires_php,omitempty"`
	Downloaded   int               `json:"downloaded"`
	LastUpdated  string            `json:"last_updated"`
	Sections     map[string]string `json:"sections"`
	DownloadLink string            `json:"download_link"`
}

func New(method, repo, server string, store cache.Store) *Client {
	return &Client{
		Method:         method,
		GitHubRepo:     repo,
		Server:         server,
		Slug:           dataType.PluginSlug,
		CurrentVersion: dataType.FormGuardVersion,
		Cache:          store,
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (c *Client) githubAPI() string {
	if c.GitHubAPI != "" {
		return strings.TrimRight(c.GitHubAPI, "/")
	}
	return DefaultGitHubAPI
}

func (c *Client) serverURL(file string) string {
	return strings.TrimRight(c.Server, "/") + "/" + file
}

// Enabled reports whether this client polls anything at all.
func (c *Client) Enabled() bool {
	switch c.Method {
	case MethodGitHub:
		return c.GitHubRepo != ""
	case MethodServer:
		return c.Server != ""
	}
	return false
}

// DisabledReason explains why Enabled is false, or is empty when it is not.
func (c *Client) DisabledReason() string {
	switch {
	case c.Enabled():
		return ""
	case c.Method == MethodWordPress:
		return "updates are delivered by wordpress.org, nothing to poll"
	case c.Method == MethodNone:
		return "update checks are turned off"
	case c.Method == MethodGitHub:
		return "no github repository configured"
	case c.Method == MethodServer:
		return "no update server configured"
	}
	return fmt.Sprintf("unknown update method %q", c.Method)
}

// RemoteVersion returns the newest published version, cached for twelve
// hours. Any failure falls back to the running version without caching.
func (c *Client) RemoteVersion(ctx context.Context) string {
	if c.Cache != nil {
		if v, ok := c.Cache.Get(RemoteVersionKey); ok && v != "" {
			return v
		}
	}

	var (
		version string
		err     error
	)
	switch c.Method {
	case MethodGitHub:
		version, err = c.githubVersion(ctx)
	case MethodServer:
		version, err = c.serverVersion(ctx)
	default:
		return c.CurrentVersion
	}
	if err != nil || version == "" {
		return c.CurrentVersion
	}

	if c.Cache != nil {
		c.Cache.Set(RemoteVersionKey, version, RemoteVersionTTL)
	}
	return version
}

// Check compares the remote version against the running one.
func (c *Client) Check(ctx context.Context) Release {
	remote := c.RemoteVersion(ctx)
	return Release{
		CurrentVersion: c.CurrentVersion,
		RemoteVersion:  remote,
		HasUpdate:      IsNewer(remote, c.CurrentVersion),
		Package:        c.DownloadURL(),
		URL:            c.PluginURL(),
		Slug:           c.Slug,
	}
}

// IsNewer reports whether remote is a higher version than current.
// Unparsable versions never count as newer.
func IsNewer(remote, current string) bool {
	r, err := parseVersion(remote)
	if err != nil {
		return false
	}
	cur, err := parseVersion(current)
	if err != nil {
		return false
	}
	return r.GT(cur)
}

func parseVersion(ver string) (semver.Version, error) {
	ver = strings.TrimSpace(ver)
	ver = strings.TrimPrefix(ver, "v")
	ver = strings.TrimPrefix(ver, "V")
	return semver.ParseTolerant(ver)
}

func (c *Client) DownloadURL() string {
	switch {
	case c.Method == MethodGitHub && c.GitHubRepo != "":
		return fmt.Sprintf("https://github.com/%s/archive/main.zip", c.GitHubRepo)
	case c.Method == MethodServer && c.Server != "":
		return c.serverURL("download.php?plugin=" + url.QueryEscape(c.Slug))
	}
	return ""
}

func (c *Client) PluginURL() string {
	switch {
	case c.Method == MethodGitHub && c.GitHubRepo != "":
		return "https://github.com/" + c.GitHubRepo
	case c.Method == MethodServer:
		return c.Server
	}
	return ""
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

func (c *Client) githubVersion(ctx context.Context) (string, error) {
	var rel githubRelease
	endpoint := fmt.Sprintf("%s/repos/%s/releases/latest", c.githubAPI(), c.GitHubRepo)
	if err := c.getJSON(ctx, endpoint, &rel); err != nil {
		return "", err
	}
	if rel.TagName == "" {
		return "", fmt.Errorf("release has no tag_name")
	}
	return strings.TrimLeft(rel.TagName, "v"), nil
}

type serverVersionResponse struct {
	Version string `json:"version"`
}

func (c *Client) serverVersion(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("plugin", c.Slug)
	form.Set("version", c.CurrentVersion)
	var resp serverVersionResponse
	if err := c.postForm(ctx, c.serverURL("check-version.php"), form, &resp); err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Version), nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	return c.do(req, out)
}

func (c *Client) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request %s: unexpected status %d", req.URL, resp.StatusCode)
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL, err)
	}
	return nil
}
