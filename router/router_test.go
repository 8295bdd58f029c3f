package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouter_SelectByKeywordCount(t *testing.T) {
	r := New()

	assert.Equal(t, "exam_generator", r.Select("Create a QUIZ with ten exam questions"))
	assert.Equal(t, "summarizer", r.Select("Give me a summary of chapter 3"))
	assert.Equal(t, "study_planner", r.Select("Build a weekly study schedule"))
}

func TestRouter_ZeroScoreUsesDefault(t *testing.T) {
	r := New()
	assert.Equal(t, DefaultAgent, r.Select("hello there"))
	assert.Equal(t, DefaultAgent, r.Select(""))
}

func TestRouter_TieUsesDefault(t *testing.T) {
	r := New(func(o *Options) {
		o.Routes = []Route{
			{AgentID: "a", Keywords: []string{"alpha"}},
			{AgentID: "b", Keywords: []string{"beta"}},
		}
		o.DefaultAgent = "fallback"
	})

	assert.Equal(t, "fallback", r.Select("alpha beta"))
	assert.Equal(t, "a", r.Select("alpha alpha beta"))
}

func TestRouter_Deterministic(t *testing.T) {
	r := New()
	text := "Explain and quiz me on the research paper"

	first := r.Select(text)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Select(text))
	}
}

func TestRouter_Scores(t *testing.T) {
	r := New(func(o *Options) {
		o.Routes = []Route{{AgentID: "a", Keywords: []string{" Alpha ", ""}}}
	})

	assert.Equal(t, []Score{{AgentID: "a", Hits: 2}}, r.Scores("ALPHA alpha"))
}
