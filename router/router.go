// Package router selects an agent for free text when the caller names none.
//
// Selection is a deterministic keyword count: every route's keywords are
// counted as case-folded substrings of the text and the highest scoring
// route wins. Ties and all-zero scores resolve to the default agent.
package router

import (
	"strings"
)

// DefaultAgent is used when no route scores uniquely highest.
const DefaultAgent = "tutor"

// Route maps an agent id to the keywords that point at it.
type Route struct {
	AgentID  string   `json:"agent" yaml:"agent"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// DefaultRoutes is the built-in keyword table.
var DefaultRoutes = []Route{
	{AgentID: "tutor", Keywords: []string{"explain", "teach", "understand", "learn", "concept", "what is", "how does", "why"}},
	{AgentID: "exam_generator", Keywords: []string{"exam", "quiz", "test", "question", "mcq", "assessment", "practice"}},
	{AgentID: "summarizer", Keywords: []string{"summarize", "summary", "tl;dr", "key points", "overview", "condense"}},
	{AgentID: "research_assistant", Keywords: []string{"research", "source", "paper", "cite", "reference", "evidence"}},
	{AgentID: "study_planner", Keywords: []string{"plan", "schedule", "roadmap", "timetable", "deadline", "week"}},
}

// Score is the keyword hit count for one agent.
type Score struct {
	AgentID string `json:"agent"`
	Hits    int    `json:"hits"`
}

// Options configures a Router.
type Options struct {
	Routes       []Route
	DefaultAgent string
}

// Router is immutable after construction and safe for concurrent use.
type Router struct {
	routes       []Route
	defaultAgent string
}

// New builds a router; keywords are lower-cased once up front.
func New(optFns ...func(o *Options)) *Router {
	opts := Options{
		Routes:       DefaultRoutes,
		DefaultAgent: DefaultAgent,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	routes := make([]Route, 0, len(opts.Routes))

	for _, r := range opts.Routes {
		kws := make([]string, 0, len(r.Keywords))

		for _, k := range r.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				kws = append(kws, k)
			}
		}

		routes = append(routes, Route{AgentID: r.AgentID, Keywords: kws})
	}

	return &Router{routes: routes, defaultAgent: opts.DefaultAgent}
}

// DefaultAgent returns the tie-breaking agent id.
func (r *Router) DefaultAgent() string { return r.defaultAgent }

// Scores returns per-route hit counts in table order.
func (r *Router) Scores(text string) []Score {
	folded := strings.ToLower(text)
	scores := make([]Score, len(r.routes))

	for i, route := range r.routes {
		hits := 0
		for _, kw := range route.Keywords {
			hits += strings.Count(folded, kw)
		}

		scores[i] = Score{AgentID: route.AgentID, Hits: hits}
	}

	return scores
}

// Select returns the unique highest scoring agent, or the default agent.
func (r *Router) Select(text string) string {
	best := Score{}
	tied := false

	for _, s := range r.Scores(text) {
		switch {
		case s.Hits > best.Hits:
			best = s
			tied = false
		case s.Hits == best.Hits && s.Hits > 0:
			tied = true
		}
	}

	if best.Hits == 0 || tied {
		return r.defaultAgent
	}

	return best.AgentID
}
