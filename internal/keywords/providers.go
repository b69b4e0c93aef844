package keywords

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// NaverNewsProvider extracts trend keywords from Naver OpenAPI news search
// results.
type NaverNewsProvider struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client
}

// NewNaverNewsProvider returns a provider for the Naver news search API.
func NewNaverNewsProvider(clientID, clientSecret string) *NaverNewsProvider {
	return &NaverNewsProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *NaverNewsProvider) Name() string { return "naver-news" }

type naverNewsResponse struct {
	Items []struct {
		Title string `json:"title"`
	} `json:"items"`
}

// ExtractKeywords searches recent news for the query and tokenizes article
// titles into candidate keywords.
func (p *NaverNewsProvider) ExtractKeywords(ctx context.Context, query string) ([]string, error) {
	endpoint := "https://openapi.naver.com/v1/search/news.json?display=5&sort=date&query=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("X-Naver-Client-Id", p.clientID)
	req.Header.Set("X-Naver-Client-Secret", p.clientSecret)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("news search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var news naverNewsResponse
	if err := json.Unmarshal(body, &news); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	var titles []string
	for _, item := range news.Items {
		titles = append(titles, item.Title)
	}
	return tokenizeTitles(titles), nil
}

// DuckDuckGoProvider extracts trend keywords from DuckDuckGo HTML search
// result titles.
type DuckDuckGoProvider struct {
	httpClient *http.Client
}

// NewDuckDuckGoProvider returns a provider for DuckDuckGo web search.
func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

var ddgResultLink = regexp.MustCompile(`<a[^>]+class="result__a"[^>]*>(.*?)</a>`)

// ExtractKeywords runs an HTML search for the query and tokenizes result
// titles into candidate keywords.
func (p *DuckDuckGoProvider) ExtractKeywords(ctx context.Context, query string) ([]string, error) {
	endpoint := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; idea-engine/1.0)")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var titles []string
	for _, match := range ddgResultLink.FindAllStringSubmatch(string(body), 5) {
		titles = append(titles, match[1])
	}
	return tokenizeTitles(titles), nil
}

var htmlTag = regexp.MustCompile(`<[^>]+>`)

// tokenizeTitles splits result titles into distinct keyword tokens, dropping
// markup, punctuation, and one-character fragments.
func tokenizeTitles(titles []string) []string {
	seen := make(map[string]struct{})
	var keywords []string
	for _, title := range titles {
		clean := htmlTag.ReplaceAllString(title, "")
		clean = strings.NewReplacer("&quot;", "", "&amp;", "&", "&lt;", "<", "&gt;", ">").Replace(clean)
		for _, token := range strings.FieldsFunc(clean, func(r rune) bool {
			return strings.ContainsRune(" \t.,!?\"'()[]{}:;|/…“”‘’", r)
		}) {
			token = strings.TrimSpace(token)
			if len([]rune(token)) < 2 {
				continue
			}
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			keywords = append(keywords, token)
		}
	}
	if len(keywords) > 20 {
		keywords = keywords[:20]
	}
	return keywords
}
