package tools

import (
	"net/url"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// KnownSites maps spoken site names to URLs.
var KnownSites = map[string]string{
	"google":    "https://www.google.com",
	"youtube":   "https://www.youtube.com",
	"facebook":  "https://www.facebook.com",
	"instagram": "https://www.instagram.com",
	"twitter":   "https://x.com",
	"wikipedia": "https://es.wikipedia.org",
	"github":    "https://github.com",
	"gmail":     "https://mail.google.com",
	"netflix":   "https://www.netflix.com",
	"amazon":    "https://www.amazon.com",
	"spotify":   "https://open.spotify.com",
	"whatsapp":  "https://web.whatsapp.com",
	"linkedin":  "https://www.linkedin.com",
	"reddit":    "https://www.reddit.com",
	"chatgpt":   "https://chat.openai.com",
	"maps":      "https://maps.google.com",
}

// ResolveSite turns a spoken site name or address into a URL.
//
// Addresses are used as given (https is assumed). Names are matched
// against KnownSites exactly, then fuzzily; anything else becomes a web
// search.
func ResolveSite(spoken string) string {
	s := strings.TrimSpace(spoken)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "://") {
		return s
	}
	if !strings.ContainsAny(lower, " \t") && strings.Contains(lower, ".") {
		return "https://" + s
	}

	key := siteKey(lower)
	if u, ok := KnownSites[key]; ok {
		return u
	}

	names := make([]string, 0, len(KnownSites))
	for name := range KnownSites {
		names = append(names, name)
	}
	sort.Strings(names)

	ranks := fuzzy.RankFindNormalizedFold(key, names)
	if len(ranks) > 0 {
		sort.Stable(ranks)
		return KnownSites[ranks[0].Target]
	}

	return "https://www.google.com/search?q=" + url.QueryEscape(s)
}

// siteKey strips filler that speech adds around site names.
func siteKey(lower string) string {
	lower = strings.TrimPrefix(lower, "www.")
	for _, suffix := range []string{".com", ".org", ".net"} {
		lower = strings.TrimSuffix(lower, suffix)
	}
	return strings.Join(strings.Fields(lower), "")
}
