package discovery

import (
	"strings"
)

// robotsRules holds the parts of robots.txt discovery cares about.
type robotsRules struct {
	disallowed []string
	allowed    []string
	sitemaps   []string
}

// parseRobots parses robots.txt content. Only the "*" and okkyno groups
// contribute path rules; Sitemap lines are global.
func parseRobots(content string) *robotsRules {
	rules := &robotsRules{}
	inOurSection := false

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			ua := strings.ToLower(value)
			inOurSection = ua == "*" || strings.Contains(ua, "okkyno")
		case "disallow":
			if inOurSection && value != "" {
				rules.disallowed = append(rules.disallowed, value)
			}
		case "allow":
			if inOurSection && value != "" {
				rules.allowed = append(rules.allowed, value)
			}
		case "sitemap":
			if value != "" {
				rules.sitemaps = append(rules.sitemaps, value)
			}
		}
	}
	return rules
}

// allows reports whether path may be crawled. A nil receiver allows all.
func (r *robotsRules) allows(path string) bool {
	if r == nil {
		return true
	}
	if path == "" {
		path = "/"
	}
	for _, pattern := range r.allowed {
		if matchRobotsPattern(pattern, path) {
			return true
		}
	}
	for _, pattern := range r.disallowed {
		if matchRobotsPattern(pattern, path) {
			return false
		}
	}
	return true
}

// matchRobotsPattern supports * (any sequence) and a trailing $ anchor.
func matchRobotsPattern(pattern, path string) bool {
	if pattern == "" {
		return false
	}

	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}

	if strings.Contains(pattern, "*") {
		return matchWildcard(pattern, path, anchored)
	}
	if anchored {
		return path == pattern
	}
	return strings.HasPrefix(path, pattern)
}

func matchWildcard(pattern, path string, mustEnd bool) bool {
	parts := strings.Split(pattern, "*")
	pos := 0

	for i, part := range parts {
		if part == "" {
			continue
		}
		idx := strings.Index(path[pos:], part)
		if idx < 0 {
			return false
		}
		if i == 0 && idx != 0 {
			return false
		}
		pos += idx + len(part)
	}

	if mustEnd {
		return pos == len(path)
	}
	return true
}
