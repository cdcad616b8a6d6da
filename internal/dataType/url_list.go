package dataType

import (
	"regexp"
	"strings"
)

// PathRule is one passthrough rule. Patterns ending in '*' match by prefix.
type PathRule struct {
	Pattern  string
	IsRegex  bool
	IsPrefix bool
	Regex    *regexp.Regexp
	Next     *PathRule
}

// PathRuleList struct LinkedList
type PathRuleList struct {
	Head *PathRule
}

// Append add a rule to the end of the list
func (l *PathRuleList) Append(rule *PathRule) {
	if l.Head == nil {
		l.Head = rule
		return
	}
	current := l.Head
	for current.Next != nil {
		current = current.Next
	}
	current.Next = rule
}

// Match check if the path matches any rule in the list
func (l *PathRuleList) Match(path string) bool {
	if l == nil {
		return false
	}
	current := l.Head
	for current != nil {
		switch {
		case current.IsRegex:
			if current.Regex.MatchString(path) {
				return true
			}
		case current.IsPrefix:
			if strings.HasPrefix(path, current.Pattern) {
				return true
			}
		default:
			if current.Pattern == path {
				return true
			}
		}
		current = current.Next
	}
	return false
}

// DefaultPassthroughPaths are the admin areas where no banner is ever injected.
var DefaultPassthroughPaths = []string{
	"/wp-admin/*",
	"/wp-login.php",
	"/wp-cron.php",
	"/xmlrpc.php",
	"/wp-json/*",
}
