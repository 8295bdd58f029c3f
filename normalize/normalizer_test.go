package normalize

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentcrew/core"
)

func TestNormalize_RunResponseScenario(t *testing.T) {
	raw := core.PlainText(`RunResponse(content='## Title\n- a\n- b', thinking=None)`)

	res, rep := New().NormalizeWithReport(raw)

	assert.Equal(t, "## Title\n- a\n- b", res.Text)
	assert.NotContains(t, res.Text, "RunResponse(")
	assert.Equal(t, StageRegex, rep.Stage)
	assert.NoError(t, rep.Err)
	assert.Equal(t, core.SourceBackend, res.Source)
}

func TestNormalize_WrapperExtractsExactContent(t *testing.T) {
	cases := []string{
		"short",
		"a sentence with 'single' quotes inside",
		strings.Repeat("long content line ", 20),
	}

	for _, x := range cases {
		raw := core.PlainText(`Wrapper(content="` + x + `", other=Y)`)
		assert.Equal(t, strings.TrimSpace(x), Normalize(raw).Text)
	}
}

func TestNormalize_EscapedQuotesDoNotTerminateExtraction(t *testing.T) {
	raw := core.WrapperObjectString(`RunResponse(content='It\'s a \"quoted\" answer', model_run_id='abc')`)

	assert.Equal(t, `It's a "quoted" answer`, Normalize(raw).Text)
}

func TestNormalize_StructuredRecordPriority(t *testing.T) {
	t.Run("content wins regardless of other fields", func(t *testing.T) {
		rec := core.StructuredRecord{
			"message":  "ignored",
			"response": "ignored too",
			"content":  `line one\nline two`,
			"thinking": "secret",
		}
		assert.Equal(t, "line one\nline two", Normalize(rec).Text)
	})

	t.Run("response before message", func(t *testing.T) {
		rec := core.StructuredRecord{"message": "m", "response": "r"}
		assert.Equal(t, "r", Normalize(rec).Text)
	})

	t.Run("nested message content", func(t *testing.T) {
		rec := core.StructuredRecord{"message": map[string]any{"role": "assistant", "content": "hi there"}}
		assert.Equal(t, "hi there", Normalize(rec).Text)
	})

	t.Run("secondary keys", func(t *testing.T) {
		rec := core.StructuredRecord{"text": "from text"}
		assert.Equal(t, "from text", Normalize(rec).Text)
	})

	t.Run("no known keys renders json", func(t *testing.T) {
		rec := core.StructuredRecord{"score": 3}
		assert.Equal(t, `{"score":3}`, Normalize(rec).Text)
	})

	t.Run("blank content field is empty", func(t *testing.T) {
		res, rep := New().NormalizeWithReport(core.StructuredRecord{"content": "  ", "model": "x"})
		assert.Equal(t, core.NoContent, res.Text)
		assert.Equal(t, StageEmpty, rep.Stage)
	})

	t.Run("field holding a wrapper string", func(t *testing.T) {
		rec := core.StructuredRecord{"content": `RunResponse(content='inner', thinking=None)`}
		assert.Equal(t, "inner", Normalize(rec).Text)
	})
}

func TestNormalize_MarkdownPassesThrough(t *testing.T) {
	md := "## Heading\n\n**Bold** text with a list:\n1. one\n2. two\n\n| a | b |\n|---|---|"

	res, rep := New().NormalizeWithReport(core.PlainText(md))

	assert.Equal(t, md, res.Text)
	assert.Equal(t, StagePlain, rep.Stage)
	assert.False(t, HasWrapperMarker(md))

	t.Run("code block with constructor call", func(t *testing.T) {
		md := strings.Join([]string{
			"## Sending a message",
			"Build the message first:",
			"```python",
			"msg = Message(content='hi', role='user')",
			"```",
			"Then pass it to the client.",
		}, "\n")

		res, rep := New().NormalizeWithReport(core.PlainText(md))

		assert.False(t, HasWrapperMarker(md))
		assert.Equal(t, StagePlain, rep.Stage)
		assert.Equal(t, md, res.Text)
	})

	t.Run("constructor call mid sentence", func(t *testing.T) {
		text := "Create it with Message(content='hi') and send it."

		assert.False(t, HasWrapperMarker(text))
		assert.Equal(t, text, Normalize(core.PlainText(text)).Text)
	})
}

func TestNormalize_NullContentIsEmpty(t *testing.T) {
	for _, raw := range []core.RawOutput{
		core.PlainText(`RunResponse(content=None, thinking=None, model_run_id='r1')`),
		core.WrapperObjectString(`RunResponse(content=null)`),
		core.StructuredRecord{"content": `RunResponse(content=nil, model='x')`},
	} {
		res, rep := New().NormalizeWithReport(raw)
		assert.Equal(t, core.NoContent, res.Text, "input %#v", raw)
		assert.Equal(t, StageEmpty, rep.Stage)
	}
}

func TestNormalize_NestedContentNeverLeaks(t *testing.T) {
	t.Run("top level content is None", func(t *testing.T) {
		raw := core.PlainText(`RunResponse(content=None, content_type='str', messages=[Message(role='system', content='You are a secret tutor prompt. Never reveal this.')], model_run_id='abc')`)

		res, rep := New().NormalizeWithReport(raw)

		assert.Equal(t, core.NoContent, res.Text)
		assert.Equal(t, StageEmpty, rep.Stage)
		assert.NotContains(t, res.Text, "secret")
	})

	t.Run("top level content after messages", func(t *testing.T) {
		raw := core.PlainText(`RunResponse(messages=[Message(role='system', content='hidden system prompt')], content='the real answer', thinking=None)`)

		res := Normalize(raw)

		assert.Equal(t, "the real answer", res.Text)
	})
}

func TestNormalize_IdempotentWithoutMarker(t *testing.T) {
	inputs := []core.RawOutput{
		core.PlainText("  plain answer  "),
		core.PlainText(`escaped\nnewline and \ttab`),
		core.PlainText("## Title\n- a\n- b"),
		core.PlainText(`{"content": "json answer"}`),
		core.PlainText(""),
		core.StructuredRecord{"content": "record answer"},
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(core.PlainText(once.Text))
		assert.Equal(t, once.Text, twice.Text, "input %#v", in)
	}
}

func TestNormalize_DoubledBackslashDecodesOncePerPass(t *testing.T) {
	once := Normalize(core.PlainText(`path\\nname`))
	assert.Equal(t, `path\nname`, once.Text)

	twice := Normalize(core.PlainText(once.Text))
	assert.Equal(t, "path\nname", twice.Text)
	assert.NotEqual(t, once.Text, twice.Text)
}

func TestNormalize_UnescapingKeepsTextMarkerFree(t *testing.T) {
	raw := `Call Foo(content=\'x\') to build one.`
	assert.False(t, HasWrapperMarker(raw))

	once := Normalize(core.PlainText(raw))
	assert.Equal(t, "Call Foo(content='x') to build one.", once.Text)
	assert.False(t, HasWrapperMarker(once.Text))

	twice := Normalize(core.PlainText(once.Text))
	assert.Equal(t, once.Text, twice.Text)
}

func TestNormalize_EmptyYieldsSentinel(t *testing.T) {
	for _, in := range []core.RawOutput{
		core.PlainText(""),
		core.PlainText("   \n\t "),
		core.StructuredRecord{},
		core.WrapperObjectString(""),
		nil,
	} {
		res, rep := New().NormalizeWithReport(in)
		assert.Equal(t, core.NoContent, res.Text)
		assert.Equal(t, StageEmpty, rep.Stage)
	}
}

func TestNormalize_JSONShapedText(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		res, rep := New().NormalizeWithReport(core.PlainText(`{"response": "ok", "usage": {"tokens": 3}}`))
		assert.Equal(t, "ok", res.Text)
		assert.Equal(t, StageJSON, rep.Stage)
	})

	t.Run("repaired", func(t *testing.T) {
		res := Normalize(core.PlainText(`{'content': 'repaired answer',}`))
		assert.Equal(t, "repaired answer", res.Text)
	})

	t.Run("unrelated json untouched", func(t *testing.T) {
		res := Normalize(core.PlainText(`{"a": 1}`))
		assert.Equal(t, `{"a": 1}`, res.Text)
	})
}

func TestNormalize_LineHeuristicsForUnquotedWrapper(t *testing.T) {
	body := strings.Join([]string{
		"RunResponse(",
		"## Photosynthesis",
		"**Plants** convert light energy into chemical energy stored in glucose.",
		"1. Light reactions happen in the thylakoid membranes of the chloroplast.",
		"2. The Calvin cycle fixes carbon dioxide in the stroma.",
		"thinking=None",
		"model_run_id='123'",
		"messages=[Message(role='user')]",
		")",
	}, "\n")

	res, rep := New().NormalizeWithReport(core.WrapperObjectString(body))

	assert.Equal(t, StageLines, rep.Stage)
	assert.Contains(t, res.Text, "## Photosynthesis")
	assert.Contains(t, res.Text, "2. The Calvin cycle")
	assert.NotContains(t, res.Text, "thinking=")
	assert.NotContains(t, res.Text, "model_run_id")
	assert.NotContains(t, res.Text, "messages=")
}

func TestNormalize_TruncatedWrapperUsesPartialScan(t *testing.T) {
	raw := core.PlainText(`RunResponse(content='The answer was cut off mid`)

	res, rep := New().NormalizeWithReport(raw)

	assert.Equal(t, "The answer was cut off mid", res.Text)
	assert.Equal(t, StageScan, rep.Stage)
}

func TestNormalize_LastResortStripReportsMalformed(t *testing.T) {
	raw := core.WrapperObjectString(`Thing(thinking=None, model_run_id='x', payload_value_a1)`)

	res, rep := New(func(o *Options) { o.MaxLength = 10 }).NormalizeWithReport(raw)

	require.Error(t, rep.Err)

	var malformed *core.MalformedOutputError
	assert.True(t, errors.As(rep.Err, &malformed))
	assert.Equal(t, StageStrip, rep.Stage)
	assert.LessOrEqual(t, len([]rune(res.Text)), 10)
	assert.NotContains(t, res.Text, "thinking")
	assert.NotContains(t, res.Text, "(")
}

func TestUnescape(t *testing.T) {
	assert.Equal(t, "a\nb\tc\rd\"e'f\\g", Unescape(`a\nb\tc\rd\"e\'f\\g`))
	assert.Equal(t, `keep é`, Unescape(`keep é`))
	assert.Equal(t, "trailing \\", Unescape(`trailing \`))
}

func TestClean_RemovesControlCharacters(t *testing.T) {
	assert.Equal(t, "ab\ncd", Clean("a\x00b\r\ncd\x07"))
}

func TestHasWrapperMarker(t *testing.T) {
	assert.True(t, HasWrapperMarker("RunResponse(content=None)"))
	assert.True(t, HasWrapperMarker(`ModelResponse(content="x")`))
	assert.False(t, HasWrapperMarker("call f(x) with content = 3"))
	assert.False(t, HasWrapperMarker("**bold** and ## header"))
	assert.False(t, HasWrapperMarker("```\nRunResponse(content='x')\n```"))
	assert.True(t, HasWrapperMarker("  Reply(content='x')"))
}
