package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplate_Helpers(t *testing.T) {
	out, err := MustParseTemplate("t", `Hello {{.name | upper}} from {{default "nowhere" .place}}`).Execute(map[string]any{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello ADA from nowhere", out)
}

func TestTemplate_NoHTMLEscaping(t *testing.T) {
	out, err := MustParseTemplate("t", `{{.}}`).Execute(`<a href="x">`)
	require.NoError(t, err)
	assert.Equal(t, `<a href="x">`, out)
}

func TestTemplate_Join(t *testing.T) {
	out, err := MustParseTemplate("t", `{{join ", " .}}`).Execute([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, "a, b", out)
}

func TestParseTemplate_Error(t *testing.T) {
	_, err := ParseTemplate("bad", "{{.broken")
	assert.Error(t, err)
}
