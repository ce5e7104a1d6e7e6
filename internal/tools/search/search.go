// Package search exposes SerpAPI web search as an agent tool.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mr1hm/disaster-scout/internal/agent"
)

const (
	DefaultURL = "https://serpapi.com/search.json"

	ToolName        = "search_tool"
	ToolDescription = "To search for relevant information about the disaster"

	noResults = "No good search result found"
)

type Options struct {
	APIKey   string
	URL      string
	Engine   string
	Country  string
	Language string
	Domains  []string
	Results  int
	Timeout  time.Duration
}

type Client struct {
	opts       Options
	httpClient *http.Client
}

type serpResponse struct {
	Error     string `json:"error"`
	AnswerBox *struct {
		Answer  string `json:"answer"`
		Snippet string `json:"snippet"`
	} `json:"answer_box"`
	KnowledgeGraph *struct {
		Description string `json:"description"`
	} `json:"knowledge_graph"`
	OrganicResults []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

func NewClient(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, errors.New("search: api key is required")
	}
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Engine == "" {
		opts.Engine = "google"
	}
	if opts.Results <= 0 {
		opts.Results = 5
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Tool wraps Search so that upstream failures become observations the
// agent can read instead of errors that end its run.
func (c *Client) Tool() agent.Tool {
	return agent.Tool{
		Name:        ToolName,
		Description: ToolDescription,
		Invoke: func(ctx context.Context, input string) (string, error) {
			out, err := c.Search(ctx, input)
			if err != nil {
				return "search failed: " + err.Error(), nil
			}
			return out, nil
		},
	}
}

func (c *Client) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("engine", c.opts.Engine)
	params.Set("q", restrictToDomains(query, c.opts.Domains))
	params.Set("api_key", c.opts.APIKey)
	if c.opts.Country != "" {
		params.Set("gl", c.opts.Country)
	}
	if c.opts.Language != "" {
		params.Set("hl", c.opts.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.URL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error while doing request: %w", err)
	}
	defer resp.Body.Close()

	var data serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("error decoding resp.Body: %w", err)
	}
	if data.Error != "" {
		return "", fmt.Errorf("serpapi error: %s", data.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d - status: %s", resp.StatusCode, resp.Status)
	}

	return c.render(data), nil
}

func (c *Client) render(data serpResponse) string {
	if ab := data.AnswerBox; ab != nil {
		if ab.Answer != "" {
			return ab.Answer
		}
		if ab.Snippet != "" {
			return ab.Snippet
		}
	}
	if kg := data.KnowledgeGraph; kg != nil && kg.Description != "" {
		return kg.Description
	}

	lines := make([]string, 0, c.opts.Results)
	for _, r := range data.OrganicResults {
		if len(lines) == c.opts.Results {
			break
		}
		if r.Snippet == "" && r.Title == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", r.Title, r.Snippet, r.Link))
	}
	if len(lines) == 0 {
		return noResults
	}
	return strings.Join(lines, "\n")
}

// restrictToDomains appends a site: disjunction so results only come from
// the trusted domains.
func restrictToDomains(query string, domains []string) string {
	if len(domains) == 0 {
		return query
	}
	sites := make([]string, 0, len(domains))
	for _, d := range domains {
		sites = append(sites, "site:"+d)
	}
	return fmt.Sprintf("%s (%s)", query, strings.Join(sites, " OR "))
}
