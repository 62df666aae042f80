package observer

import "strings"

// PrivacyFilter drops activity at the source when the foreground app or
// window title matches a blocklist entry. Patterns use a single `*`
// wildcard over lowercased text — not full shell globbing — since the
// only author of these patterns is a user typing into cleo.json, not a
// filesystem path expression.
type PrivacyFilter struct {
	blockedApps    []string
	blockedWindows []string
}

// NewPrivacyFilter builds a filter from cleo.json's blocked_apps /
// blocked_window_patterns lists.
func NewPrivacyFilter(blockedApps, blockedWindowPatterns []string) PrivacyFilter {
	return PrivacyFilter{
		blockedApps:    lowerAll(blockedApps),
		blockedWindows: lowerAll(blockedWindowPatterns),
	}
}

func lowerAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(s)
	}
	return out
}

// Blocks reports whether app or windowTitle match any blocklist entry.
func (f PrivacyFilter) Blocks(app, windowTitle string) bool {
	app = strings.ToLower(app)
	windowTitle = strings.ToLower(windowTitle)

	for _, pattern := range f.blockedApps {
		if matchGlob(pattern, app) {
			return true
		}
	}
	for _, pattern := range f.blockedWindows {
		if matchGlob(pattern, windowTitle) {
			return true
		}
	}
	return false
}

// matchGlob matches text against pattern using `*` as the only wildcard.
// An empty pattern never matches (an empty blocklist entry is ignored,
// not treated as match-everything).
func matchGlob(pattern, text string) bool {
	if pattern == "" {
		return false
	}
	if !strings.Contains(pattern, "*") {
		return pattern == text
	}

	parts := strings.Split(pattern, "*")

	if !strings.HasPrefix(text, parts[0]) {
		return false
	}
	text = text[len(parts[0]):]

	if !strings.HasSuffix(text, parts[len(parts)-1]) {
		return false
	}
	if len(parts) > 1 {
		text = text[:len(text)-len(parts[len(parts)-1])]
	}

	for _, mid := range parts[1 : len(parts)-1] {
		if mid == "" {
			continue
		}
		idx := strings.Index(text, mid)
		if idx < 0 {
			return false
		}
		text = text[idx+len(mid):]
	}
	return true
}
