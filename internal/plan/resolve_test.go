package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	results := NewResults()
	results.Set(1, "{\n  \"a\": \"1\"\n}")
	results.Set(2, "1. AI news\n   https://example.com/ai\n\n2. More\n   https://example.org\n")
	results.Set(3, "http://first.example\nsecond line")
	results.Set(4, "plain output")
	results.Set(5, "google_search.google_search result:\n1. Title\n   https://example.com/page\n")

	tests := []struct {
		raw  string
		want Resolution
	}{
		{"[result from step 1]", Resolution{"{\n  \"a\": \"1\"\n}", SourceJSON}},
		{"[result from step 2]", Resolution{"https://example.com/ai", SourceURL}},
		{"[result from step 3]", Resolution{"http://first.example", SourceURL}},
		{"[result from step 4]", Resolution{"plain output", SourceRaw}},
		{"[result from step 5]", Resolution{"https://example.com/page", SourceURL}},
		{"[result from step 9]", Resolution{"[result from step 9]", SourcePassThrough}},
		{"[result from step x]", Resolution{"[result from step x]", SourcePassThrough}},
		{"[something else]", Resolution{"[something else]", SourcePassThrough}},
		{`"ai_news.txt"`, Resolution{"ai_news.txt", SourceLiteral}},
		{`"literal"`, Resolution{"literal", SourceLiteral}},
		{"plain", Resolution{"plain", SourceLiteral}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Resolve(tt.raw, results), tt.raw)
	}
}

func TestResolveFirstLine(t *testing.T) {
	results := NewResults()
	results.Set(1, "httpbin says hi\nbody")
	assert.Equal(t, Resolution{"httpbin says hi", SourceFirstLine}, Resolve("[result from step 1]", results))
}

func TestResolveWithoutResults(t *testing.T) {
	assert.Equal(t, SourcePassThrough, Resolve("[result from step 1]", nil).Source)
}

func TestResultsOrder(t *testing.T) {
	r := NewResults()
	r.Set(2, "b")
	r.Set(1, "a")
	r.Set(2, "bb")
	assert.Equal(t, []int{2, 1}, r.Keys())
	assert.Equal(t, 2, r.Len())
	v, ok := r.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "bb", v)
}

func TestValidateURL(t *testing.T) {
	for _, u := range []string{
		"https://example.com",
		"https://example.com/path?q=1",
		"http://127.0.0.1:8080/",
		"http://localhost:8080/path?q=1",
		"http://127.0.0.1:4321",
		"https://sub.example.co.uk/a/b",
		"HTTPS://EXAMPLE.COM/",
	} {
		assert.NoError(t, ValidateURL(u), u)
	}
	for _, u := range []string{"not a url", "ftp://example.com", "https://", "https://exa mple.com", "[result from step 1]"} {
		var iue *InvalidURLError
		assert.ErrorAs(t, ValidateURL(u), &iue, u)
	}
	assert.True(t, NeedsURLGuard("fetch_article"))
	assert.False(t, NeedsURLGuard("make_post_request"))
}
