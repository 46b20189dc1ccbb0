package tui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTTYOutput(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		NewTTYOutput(&buf).Success("backup finished")
		assert.Contains(t, buf.String(), "✓ backup finished")
	})

	t.Run("error", func(t *testing.T) {
		var buf bytes.Buffer
		NewTTYOutput(&buf).Error(errors.New("merge conflict"))
		assert.Contains(t, buf.String(), "✗ merge conflict")
	})

	t.Run("warning", func(t *testing.T) {
		var buf bytes.Buffer
		NewTTYOutput(&buf).Warning("branch is stale")
		assert.Contains(t, buf.String(), "⚠ branch is stale")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewTTYOutput(&buf).JSON(map[string]int{"score": 79}))
		assert.JSONEq(t, `{"score": 79}`, buf.String())
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		NewTTYOutput(&buf).Table([]string{"BRANCH"}, [][]string{{"main"}})
		assert.Contains(t, buf.String(), "BRANCH")
		assert.Contains(t, buf.String(), "main")
	})
}

func TestJSONOutput(t *testing.T) {
	t.Run("human messages suppressed", func(t *testing.T) {
		var buf bytes.Buffer
		o := NewJSONOutput(&buf)
		o.Success("done")
		o.Warning("careful")
		o.Info("note")
		o.Table([]string{"A"}, nil)
		assert.Empty(t, buf.String())
	})

	t.Run("error as json", func(t *testing.T) {
		var buf bytes.Buffer
		NewJSONOutput(&buf).Error(errors.New("boom"))
		assert.JSONEq(t, `{"error": "boom"}`, buf.String())
	})

	t.Run("json payload", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, NewJSONOutput(&buf).JSON([]string{"a", "b"}))
		assert.JSONEq(t, `["a","b"]`, buf.String())
	})
}

func TestNewOutput(t *testing.T) {
	var buf bytes.Buffer
	assert.IsType(t, &JSONOutput{}, NewOutput(&buf, "json"))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, "text"))
	assert.IsType(t, &TTYOutput{}, NewOutput(&buf, ""))
}
