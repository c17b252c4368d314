package structured

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want any
	}{
		{name: "plain object", raw: `{"a": 1}`, key: "a", want: float64(1)},
		{name: "fenced json", raw: "```json\n{\"a\": \"x\"}\n```", key: "a", want: "x"},
		{name: "fence without language", raw: "```\n{\"a\": true}\n```", key: "a", want: true},
		{name: "leading prose", raw: "Sure! Here it is: {\"a\": \"b\"} hope that helps", key: "a", want: "b"},
		{name: "braces inside strings", raw: `note {"a": "x}y", "b": 2} trailing }`, key: "a", want: "x}y"},
		{name: "trailing commas", raw: `{"a": [1, 2,], "b": 3,}`, key: "b", want: float64(3)},
		{name: "raw newline in string", raw: "{\"a\": \"line\none\"}", key: "a", want: "line one"},
		{name: "comma inside string kept", raw: `{"a": "x,}", "b": 1,}`, key: "a", want: "x,}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, ok := Extract(tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, obj[tt.key])
		})
	}
}

func TestExtractRejects(t *testing.T) {
	for _, raw := range []string{"", "no json here", "[1, 2, 3]", `{"a": `} {
		_, ok := Extract(raw)
		assert.False(t, ok, raw)
	}
}

func TestExtractNestedValues(t *testing.T) {
	obj, ok := Extract(`{"items": [{"q": "why Go?", "score": 2.5}], "meta": {"ok": false, "n": null}}`)
	require.True(t, ok)

	items, ok := obj["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	first, ok := items[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "why Go?", first["q"])
	assert.Equal(t, 2.5, first["score"])

	meta, ok := obj["meta"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, meta["ok"])
	v, present := meta["n"]
	assert.True(t, present)
	assert.Nil(t, v)
}

func TestResolveFencedNeedsNoRepair(t *testing.T) {
	var calls atomic.Int32
	repair := func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", nil
	}

	obj, outcome := Resolve(context.Background(), "```json\n{\"headline\": \"ok\"}\n```", repair)
	assert.Equal(t, Parsed, outcome)
	assert.Equal(t, "ok", obj["headline"])
	assert.Zero(t, calls.Load())
}

func TestResolveRepairsOnce(t *testing.T) {
	var calls atomic.Int32
	repair := func(_ context.Context, raw string) (string, error) {
		calls.Add(1)
		assert.Equal(t, "headline: ok", raw)
		return `{"headline": "ok"}`, nil
	}

	obj, outcome := Resolve(context.Background(), "headline: ok", repair)
	assert.Equal(t, Repaired, outcome)
	assert.Equal(t, "ok", obj["headline"])
	assert.EqualValues(t, 1, calls.Load())
}

func TestResolveFallsBack(t *testing.T) {
	var calls atomic.Int32
	repair := func(context.Context, string) (string, error) {
		calls.Add(1)
		return "still not json", nil
	}

	raw := strings.Repeat("x", 1000)
	obj, outcome := Resolve(context.Background(), raw, repair)
	assert.Equal(t, Fallback, outcome)
	assert.EqualValues(t, 1, calls.Load())
	assert.True(t, IsFallback(obj))
	assert.NotEmpty(t, obj["note"])
	assert.True(t, strings.HasSuffix(obj["raw_preview"].(string), "…"))
	assert.Less(t, len([]rune(obj["raw_preview"].(string))), 1000)

	_, outcome = Resolve(context.Background(), "nope", func(context.Context, string) (string, error) {
		return "", errors.New("boom")
	})
	assert.Equal(t, Fallback, outcome)

	_, outcome = Resolve(context.Background(), "nope", nil)
	assert.Equal(t, Fallback, outcome)
}

func TestResolveSkipsRepairWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	_, outcome := Resolve(ctx, "nope", func(context.Context, string) (string, error) {
		called = true
		return `{}`, nil
	})
	assert.Equal(t, Fallback, outcome)
	assert.False(t, called)
}

func TestBackfill(t *testing.T) {
	shape := Object{
		"risks":   []any{},
		"summary": "",
		"meta":    map[string]any{"source": "", "score": float64(0)},
	}

	obj := Object{"summary": "keep me", "meta": map[string]any{"score": float64(7)}}
	got := Backfill(obj, shape)

	assert.Equal(t, "keep me", got["summary"])
	assert.Equal(t, []any{}, got["risks"])
	assert.Equal(t, map[string]any{"source": "", "score": float64(7)}, got["meta"])

	got["risks"] = append(got["risks"].([]any), "mutated")
	assert.Empty(t, shape["risks"])

	assert.Equal(t, shape, Backfill(nil, shape))
}

func TestCloneIsolation(t *testing.T) {
	orig := Object{"list": []any{map[string]any{"q": "a"}}}
	cp := CloneObject(orig)
	cp["list"].([]any)[0].(map[string]any)["q"] = "changed"
	assert.Equal(t, "a", orig["list"].([]any)[0].(map[string]any)["q"])
	assert.Nil(t, CloneObject(nil))
}
