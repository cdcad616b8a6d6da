package config

import (
	"bufio"
	"errors"
	"fmt"
	"form_guard/internal/dataType"
	"form_guard/internal/utils"
	"net"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type MainConfig struct {
	Port                  string        `yaml:"port" validate:"required,numeric"`
	WebPath               string        `yaml:"web_path" validate:"required,startswith=/"`
	Upstream              string        `yaml:"upstream" validate:"required,url"`
	SiteURL               string        `yaml:"site_url" validate:"omitempty,url"`
	RulePath              string        `yaml:"rule_path"`
	ErrorPage             string        `yaml:"error_page"`
	LogPath               string        `yaml:"log_path" validate:"required"`
	NodeName              string        `yaml:"node_name"`
	Database              string        `yaml:"database" validate:"required"`
	AdminListen           string        `yaml:"admin_listen" validate:"omitempty,hostname_port"`
	AdminToken            string        `yaml:"admin_token"`
	CookiePath            string        `yaml:"cookie_path" validate:"required,startswith=/"`
	CookieDomain          string        `yaml:"cookie_domain"`
	ConnectingHostHeaders []string      `yaml:"connecting_host_headers"`
	ConnectingIPHeaders   []string      `yaml:"connecting_ip_headers"`
	EdgeCountryHeader     string        `yaml:"edge_country_header"`
	GeoHeaders            []string      `yaml:"geo_headers"`
	GeoIPDatabase         string        `yaml:"geoip_database"`
	GeoAPIURL             string        `yaml:"geo_api_url" validate:"required,url"`
	GeoAPITimeout         time.Duration `yaml:"geo_api_timeout" validate:"gt=0"`
	GeoAPIRate            string        `yaml:"geo_api_rate"`
	CacheCapacity         int           `yaml:"cache_capacity" validate:"gt=0"`
	MaxBodyBytes          int64         `yaml:"max_body_bytes" validate:"gt=0"`
	Update                UpdateConfig  `yaml:"update"`
}

type UpdateConfig struct {
	Method     string `yaml:"method" validate:"oneof=github server wordpress none"`
	GitHubRepo string `yaml:"github_repo" validate:"required_if=Method github"`
	Server     string `yaml:"server" validate:"required_if=Method server"`
	Schedule   string `yaml:"schedule"`
}

// DefaultMainConfig returns the configuration used for every key the file leaves out
func DefaultMainConfig() MainConfig {
	return MainConfig{
		Port:                  "25580",
		WebPath:               "/form_guard",
		Upstream:              "http://127.0.0.1:8080",
		RulePath:              "/www/form_guard/config/rules",
		ErrorPage:             "/www/form_guard/config/error_page",
		LogPath:               "/www/form_guard/log/",
		NodeName:              "Form Guard",
		Database:              "/www/form_guard/data/form_guard.db",
		AdminListen:           "127.0.0.1:25581",
		CookiePath:            "/",
		ConnectingHostHeaders: []string{"X-Forwarded-Host"},
		ConnectingIPHeaders:   []string{"CF-Connecting-IP", "X-Real-IP", "X-Forwarded-For"},
		EdgeCountryHeader:     "CF-IPCountry",
		GeoHeaders:            []string{"GeoIP-Country-Code", "X-GeoIP-Country-Code", "Geo-Country", "X-AppEngine-Country"},
		GeoAPIURL:             "https://ipapi.co",
		GeoAPITimeout:         2 * time.Second,
		CacheCapacity:         10000,
		MaxBodyBytes:          8 << 20,
		Update: UpdateConfig{
			Method:     "github",
			GitHubRepo: "roy-dela-torre/disable-form",
			Schedule:   "@every 12h",
		},
	}
}

var validate = validator.New()

// LoadMainConfig Read the configuration file and return the configuration object
func LoadMainConfig(basePath string) (*MainConfig, error) {
	defaultCfg := DefaultMainConfig()

	if basePath == "" {
		exePath, err := os.Executable()
		if err != nil {
			return &defaultCfg, err
		}
		basePath = filepath.Dir(exePath)
	}
	configPath := filepath.Join(basePath, "config", "form_guard.yml")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return &defaultCfg, err
	}

	cfg := DefaultMainConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return &defaultCfg, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	if err := cfg.Validate(); err != nil {
		return &defaultCfg, fmt.Errorf("invalid config %s: %w", configPath, err)
	}

	return &cfg, nil
}

func (c *MainConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid fields: %s", strings.Join(fields, ", "))
		}
		return err
	}
	if c.Update.Server != "" {
		if err := validate.Var(c.Update.Server, "url"); err != nil {
			return fmt.Errorf("invalid update server %q: %w", c.Update.Server, err)
		}
	}
	if c.GeoAPIRate != "" {
		if _, _, err := utils.ParseRate(c.GeoAPIRate); err != nil {
			return err
		}
	}
	return nil
}

// RuleSet stores all rules
type RuleSet struct {
	Passthrough    *dataType.PathRuleList
	TrustedProxies *dataType.TrieNode
}

// LoadRules Load all rules from the specified path. Missing rule files
// fall back to the built-in defaults.
func LoadRules(rulePath string) (*RuleSet, error) {
	rs := RuleSet{
		Passthrough:    &dataType.PathRuleList{},
		TrustedProxies: &dataType.TrieNode{},
	}

	passthroughFile := filepath.Join(rulePath, "Passthrough.conf")
	if err := loadPathRules(passthroughFile, rs.Passthrough); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", passthroughFile, err)
		}
		for _, p := range dataType.DefaultPassthroughPaths {
			rs.Passthrough.Append(parsePathRule(p))
		}
	}

	proxiesFile := filepath.Join(rulePath, "TrustedProxies.conf")
	if err := loadIPRules(proxiesFile, rs.TrustedProxies); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load %s: %w", proxiesFile, err)
	}

	return &rs, nil
}

// loadIPRules read the IP rule file and insert the rules into the trie
func loadIPRules(filePath string, trie *dataType.TrieNode) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !strings.Contains(line, "/") {
			if strings.Contains(line, ":") {
				line = line + "/128"
			} else {
				line = line + "/32"
			}
		}
		_, ipNet, err := net.ParseCIDR(line)
		if err != nil {
			continue
		}
		trie.Insert(ipNet)
	}

	return scanner.Err()
}

// loadPathRules Load passthrough path rules from the specified file
func loadPathRules(filePath string, list *dataType.PathRuleList) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rule := parsePathRule(line); rule != nil {
			list.Append(rule)
		}
	}

	return scanner.Err()
}

func parsePathRule(line string) *dataType.PathRule {
	if strings.HasSuffix(line, "*") && !strings.HasPrefix(line, "^") {
		return &dataType.PathRule{Pattern: strings.TrimSuffix(line, "*"), IsPrefix: true}
	}
	// anchors or regex metacharacters other than '.' mark a regex
	if strings.HasPrefix(line, "^") || strings.HasSuffix(line, "$") || strings.ContainsAny(line, "*+?()[]{}|\\") {
		compiled, err := regexp.Compile(line)
		if err != nil {
			// skip invalid regex
			return nil
		}
		return &dataType.PathRule{Pattern: line, IsRegex: true, Regex: compiled}
	}
	return &dataType.PathRule{Pattern: line}
}
