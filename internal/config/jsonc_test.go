package config

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeJSONCRemovesCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true,
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")
	require.NotContains(t, normalized, ",]")
	require.NotContains(t, normalized, ",}")
}

func TestNormalizeJSONCRetainsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, "// and /* comment-like */")
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	err := ensureSingleJSONValue(decoder)
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestOffsetToLineCol(t *testing.T) {
	content := "line1\nline2\nline3"
	line, col := offsetToLineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = offsetToLineCol(content, 8) // line2, col2
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = offsetToLineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 5, col)
}

func TestWrapJSONDecodeErrorPassesThroughOtherErrors(t *testing.T) {
	base := errors.New("boom")
	err := wrapJSONDecodeError("{}", base)
	require.ErrorIs(t, err, base)
	require.NotContains(t, err.Error(), "line")
}
