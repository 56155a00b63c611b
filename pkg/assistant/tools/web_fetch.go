package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/neonpi/anton/pkg/core/types"
)

const (
	// fetchReadLimit bounds how much of the body is read.
	fetchReadLimit = 5000
	// fetchResultLimit bounds the stripped text returned to the model.
	fetchResultLimit = 2000
)

var (
	scriptRe     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe        = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// WebFetchExecutor answers fetch_web_content. Responses are size-capped
// and tag-stripped before going back to the model.
type WebFetchExecutor struct {
	httpClient *http.Client
}

// NewWebFetchExecutor builds the web fetch tool. client may be nil.
func NewWebFetchExecutor(client *http.Client) *WebFetchExecutor {
	if client == nil {
		client = &http.Client{}
	}
	return &WebFetchExecutor{httpClient: client}
}

func (e *WebFetchExecutor) Name() string { return "fetch_web_content" }

func (e *WebFetchExecutor) Definition() types.Tool {
	return types.NewTool("fetch_web_content",
		"Fetch and read content from a URL (Reddit threads, articles, etc.)",
		&types.JSONSchema{
			Type: "object",
			Properties: map[string]types.JSONSchema{
				"url": {Type: "string", Description: "The URL to fetch content from"},
			},
			Required: []string{"url"},
		})
}

func (e *WebFetchExecutor) Execute(ctx context.Context, args map[string]any) string {
	target := stringArg(args, "url", "")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Sprintf("Error fetching URL: %v", err)
	}
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error fetching URL: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("Failed to fetch %s: HTTP %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchReadLimit))
	if err != nil {
		return fmt.Sprintf("Error fetching URL: %v", err)
	}

	content := stripMarkup(string(body))
	if len(content) > fetchResultLimit {
		// Back up to a rune boundary so the cut never splits a
		// multibyte character.
		cut := fetchResultLimit
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	return fmt.Sprintf("Content from %s: %s...", target, content)
}

// stripMarkup removes script/style blocks and all tags, then collapses
// whitespace.
func stripMarkup(s string) string {
	s = scriptRe.ReplaceAllString(s, "")
	s = styleRe.ReplaceAllString(s, "")
	s = tagRe.ReplaceAllString(s, " ")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
