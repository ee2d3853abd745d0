package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeObjectPlain(t *testing.T) {
	var v map[string]interface{}
	clean, err := decodeObject(`{"overall_score": 85, "summary": "ok"}`, &v)
	require.NoError(t, err)
	assert.Equal(t, float64(85), v["overall_score"])
	assert.JSONEq(t, `{"overall_score": 85, "summary": "ok"}`, clean)
}

func TestDecodeObjectStripsFences(t *testing.T) {
	fenced := "```json\n{\"overall_score\": 72, \"summary\": \"fenced\"}\n```"
	bare := "{\"overall_score\": 72, \"summary\": \"fenced\"}"

	var fromFenced, fromBare map[string]interface{}
	_, err := decodeObject(fenced, &fromFenced)
	require.NoError(t, err)
	_, err = decodeObject(bare, &fromBare)
	require.NoError(t, err)

	assert.Equal(t, fromBare, fromFenced)
}

func TestDecodeObjectBareFence(t *testing.T) {
	var v map[string]interface{}
	_, err := decodeObject("```\n{\"a\": 1}\n```", &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestDecodeObjectBraceFallback(t *testing.T) {
	var v map[string]interface{}
	_, err := decodeObject(`Here is your plan: {"a": 1} hope it helps`, &v)
	require.NoError(t, err)
	assert.Equal(t, float64(1), v["a"])
}

func TestDecodeObjectProse(t *testing.T) {
	var v map[string]interface{}
	_, err := decodeObject("I cannot help with that.", &v)
	assert.Error(t, err)
}
