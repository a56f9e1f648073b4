package tooling

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const defaultSearchURL = "https://www.google.com/search"

// GoogleSearch scrapes result titles and links from a Google results page.
func GoogleSearch(w *webClient, baseURL string, defaultResults int) *Capability {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultSearchURL
	}
	if defaultResults <= 0 {
		defaultResults = 5
	}
	return NewCapability("google_search").
		Add("google_search", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("google_search", args, 1, -1); err != nil {
				return "", err
			}
			num := defaultResults
			if len(args) > 1 {
				if n, err := strconv.Atoi(strings.TrimSpace(args[len(args)-1])); err == nil {
					num = n
					args = args[:len(args)-1]
				}
			}
			return w.search(ctx, baseURL, strings.Join(args, ", "), num), nil
		})
}

func (w *webClient) search(ctx context.Context, baseURL, query string, num int) string {
	target := baseURL + "?q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("Error performing Google search: %v", err)
	}
	body, _, err := w.do(req)
	if err != nil {
		return fmt.Sprintf("Error performing Google search: %v", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return fmt.Sprintf("Unexpected error during Google search: %v", err)
	}

	var results []string
	doc.Find("div.g").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if len(results) >= num {
			return false
		}
		title := sel.Find("h3").First()
		link := sel.Find("a").First()
		if title.Length() == 0 || link.Length() == 0 {
			return true
		}
		href := link.AttrOr("href", "")
		if strings.HasPrefix(href, "/url?q=") {
			href = strings.TrimPrefix(href, "/url?q=")
			href, _, _ = strings.Cut(href, "&")
			if unescaped, err := url.QueryUnescape(href); err == nil {
				href = unescaped
			}
		}
		results = append(results, fmt.Sprintf("%d. %s\n   %s\n", len(results)+1, title.Text(), href))
		return true
	})
	if len(results) == 0 {
		return "No search results found."
	}
	return strings.Join(results, "\n")
}
