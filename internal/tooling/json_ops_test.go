package tooling

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateJSONFromSplitArgs(t *testing.T) {
	reg := NewRegistry(JSONOperations())
	out, err := reg.Invoke(context.Background(), "json_operations", "create_json", "a: 1", "b: 2")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": \"1\",\n  \"b\": \"2\"\n}", out)
}

func TestCreateJSONMissingSeparator(t *testing.T) {
	out := CreateJSON("a: 1, broken")
	assert.Contains(t, out, "Error creating JSON")
}

func TestToJSONCoercesAndKeepsOrder(t *testing.T) {
	out := ToJSON("zeta: 3, alpha: 1.5, name: ok, zeta: 4")
	assert.Equal(t, "{\n  \"zeta\": 4,\n  \"alpha\": 1.5,\n  \"name\": \"ok\"\n}", out)
}

func TestToJSONReindentsValidJSON(t *testing.T) {
	out := ToJSON(`{"b":[1, 2],  "a":{"c":"<x>"}}`)
	assert.Equal(t, "{\n  \"b\": [\n    1,\n    2\n  ],\n  \"a\": {\n    \"c\": \"<x>\"\n  }\n}", out)
}

func TestToJSONRejectsPlainText(t *testing.T) {
	out := ToJSON("Successfully wrote content to 'workspace/a.txt'")
	assert.Contains(t, out, "Error converting to JSON")
}

func TestToJSONRejectsAccidentalPairs(t *testing.T) {
	cases := map[string]string{
		"search listing": "1. AI News Today\n   https://example.com/ai",
		"bare url":       "https://example.com/page",
		"prose key":      "Note to self: buy milk",
		"empty key":      ": orphan",
	}
	for name, in := range cases {
		assert.Contains(t, ToJSON(in), "Error converting to JSON", name)
	}
}

func TestToJSONKeepsNonFiniteAsString(t *testing.T) {
	assert.Equal(t, "{\n  \"x\": \"inf\"\n}", ToJSON("x: inf"))
}

func TestParseJSON(t *testing.T) {
	assert.Equal(t, "[\n  1\n]", ParseJSON(" [1] "))
	assert.Contains(t, ParseJSON("{oops"), "Error parsing JSON")
}

func TestGetJSONValue(t *testing.T) {
	doc := `{"name":"ada","tags":["a","b"],"n":3}`
	assert.Equal(t, "ada", GetJSONValue(doc, "name"))
	assert.Equal(t, `["a","b"]`, GetJSONValue(doc, "tags"))
	assert.Equal(t, "3", GetJSONValue(doc, "n"))
	assert.Equal(t, "Key 'zip' not found in JSON data", GetJSONValue(doc, "zip"))
	assert.Equal(t, "Key 'a' not found in JSON data", GetJSONValue(`[1]`, "a"))
	assert.Contains(t, GetJSONValue("nope", "a"), "Error parsing JSON")
}
