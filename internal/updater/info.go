package updater

import (
	"context"
	"fmt"
	"form_guard/internal/dataType"
	"net/url"
	"time"
)

const (
	pluginAuthor      = "Roy De La Torre"
	pluginRequires    = "5.0"
	pluginTested      = "6.6"
	pluginDescription = "Disables forms sitewide on non-production domains with IP geolocation support."
)

const Changelog = `<h3>Version 1.2.0</h3>
<ul>
<li><strong>NEW:</strong> Selective Contact Form 7 form disabling with visual interface</li>
<li><strong>NEW:</strong> Advanced geolocation with multi-tier detection</li>
<li><strong>NEW:</strong> Philippines-specific messaging with automatic localization</li>
<li><strong>NEW:</strong> Dynamic form detection using MutationObserver</li>
<li><strong>IMPROVED:</strong> 24-hour caching system for geolocation</li>
<li><strong>IMPROVED:</strong> Enhanced admin interface</li>
<li><strong>FIXED:</strong> Search forms properly excluded from disabling</li>
</ul>`

// DefaultInfo is served when no remote source answers.
func DefaultInfo(version string) PluginInfo {
	return PluginInfo{
		Name:        dataType.PluginName,
		Slug:        dataType.PluginSlug,
		Version:     version,
		Author:      pluginAuthor,
		Requires:    pluginRequires,
		Tested:      pluginTested,
		LastUpdated: time.Now().Format("2006-01-02"),
		Sections: map[string]string{
			"description": pluginDescription,
			"changelog":   Changelog,
		},
	}
}

type githubRepo struct {
	HTMLURL     string `json:"html_url"`
	UpdatedAt   string `json:"updated_at"`
	Description string `json:"description"`
}

// Info gathers plugin details from the configured source.
func (c *Client) Info(ctx context.Context) PluginInfo {
	var info PluginInfo
	switch c.Method {
	case MethodGitHub:
		info = c.githubInfo(ctx)
	case MethodServer:
		info = c.serverInfo(ctx)
	default:
		info = DefaultInfo(c.CurrentVersion)
	}
	info.Slug = c.Slug
	info.DownloadLink = c.DownloadURL()
	return info
}

func (c *Client) githubInfo(ctx context.Context) PluginInfo {
	info := DefaultInfo(c.CurrentVersion)
	var repo githubRepo
	if err := c.getJSON(ctx, fmt.Sprintf("%s/repos/%s", c.githubAPI(), c.GitHubRepo), &repo); err != nil {
		return info
	}
	info.Version = c.RemoteVersion(ctx)
	info.Homepage = repo.HTMLURL
	if repo.UpdatedAt != "" {
		info.LastUpdated = repo.UpdatedAt
	}
	if repo.Description != "" {
		info.Sections["description"] = repo.Description
	}
	return info
}

// RemoteInfo is the flat document served by plugin-info.php.
type RemoteInfo struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Version          string   `json:"version"`
	Author           string   `json:"author"`
	AuthorProfile    string   `json:"author_profile,omitempty"`
	Homepage         string   `json:"homepage"`
	Requires         string   `json:"requires"`
	Tested           string   `json:"tested"`
	RequiresPHP      string   `json:"requires_php"`
	Downloaded       int      `json:"downloaded"`
	ActiveInstalls   int      `json:"active_installs"`
	LastUpdated      string   `json:"last_updated"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description,omitempty"`
	Changelog        string   `json:"changelog"`
	Installation     string   `json:"installation,omitempty"`
	FAQ              string   `json:"faq,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

func (c *Client) serverInfo(ctx context.Context) PluginInfo {
	form := url.Values{}
	form.Set("plugin", c.Slug)
	var remote RemoteInfo
	if err := c.postForm(ctx, c.serverURL("plugin-info.php"), form, &remote); err != nil || remote.Version == "" {
		return DefaultInfo(c.CurrentVersion)
	}
	info := PluginInfo{
		Name:        remote.Name,
		Version:     remote.Version,
		Author:      remote.Author,
		Homepage:    remote.Homepage,
		Requires:    remote.Requires,
		Tested:      remote.Tested,
		RequiresPHP: remote.RequiresPHP,
		Downloaded:  remote.Downloaded,
		LastUpdated: remote.LastUpdated,
		Sections: map[string]string{
			"description": remote.Description,
			"changelog":   remote.Changelog,
		},
	}
	if remote.Installation != "" {
		info.Sections["installation"] = remote.Installation
	}
	if remote.FAQ != "" {
		info.Sections["faq"] = remote.FAQ
	}
	if info.Sections["changelog"] == "" {
		info.Sections["changelog"] = Changelog
	}
	if info.Name == "" {
		info.Name = dataType.PluginName
	}
	return info
}
