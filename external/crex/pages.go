package crex

import (
	"net/url"
	"strings"

	"github.com/valyala/bytebufferpool"
)

const defaultBaseURL = "https://crex.live"

// Router builds source page URLs.
type Router struct {
	baseURL string
}

func NewRouter(baseURL string) *Router {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Router{baseURL: baseURL}
}

func (r *Router) FixturesURL() string {
	return r.build("fixtures", "match-list")
}

func (r *Router) DetailsURL(matchID string) string {
	return r.build("match", url.PathEscape(strings.TrimSpace(matchID)))
}

func (r *Router) LiveURL(matchID string) string {
	return r.build("match", url.PathEscape(strings.TrimSpace(matchID)), "live")
}

func (r *Router) ScorecardURL(matchID string) string {
	return r.build("match", url.PathEscape(strings.TrimSpace(matchID)), "scorecard")
}

func (r *Router) build(segments ...string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(r.baseURL)
	for _, segment := range segments {
		_ = buf.WriteByte('/')
		_, _ = buf.WriteString(segment)
	}
	return buf.String()
}
