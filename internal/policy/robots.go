package policy

import (
	"strings"
)

// robotsRules holds the parsed disallow rules per user-agent group.
type robotsRules struct {
	// disallow maps a lowercased user-agent token to its disallowed path
	// prefixes. "*" is the wildcard group.
	disallow map[string][]string
}

// parseRobots parses robots.txt content into rule groups. Only User-agent
// and Disallow directives are honored; anything else is ignored. Multiple
// consecutive User-agent lines share the rules that follow them.
func parseRobots(text string) *robotsRules {
	rules := &robotsRules{disallow: make(map[string][]string)}

	var currentAgents []string
	lastWasAgent := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if i := strings.Index(line, "#"); i >= 0 {
			line = strings.TrimSpace(line[:i])
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
			if !lastWasAgent {
				currentAgents = nil
			}
			currentAgents = append(currentAgents, strings.ToLower(value))
			lastWasAgent = true
		case "disallow":
			lastWasAgent = false
			// An empty Disallow means the group allows everything.
			if value == "" {
				continue
			}
			for _, agent := range currentAgents {
				rules.disallow[agent] = append(rules.disallow[agent], value)
			}
		default:
			lastWasAgent = false
		}
	}

	return rules
}

// canFetch reports whether the given user-agent may fetch the path. Rules
// for the specific agent take effect alongside the wildcard group.
func (r *robotsRules) canFetch(userAgent, path string) bool {
	if path == "" {
		path = "/"
	}
	agent := strings.ToLower(userAgent)

	for _, group := range []string{agent, "*"} {
		for _, prefix := range r.disallow[group] {
			if strings.HasPrefix(path, prefix) {
				return false
			}
		}
	}
	return true
}
