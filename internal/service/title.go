package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	titleFetchTimeout = 5 * time.Second
	titleMaxBodySize  = 512 * 1024 // Titles live in the head; half a megabyte is plenty.
	titleMaxLength    = 500
)

// TitleService fetches page titles for clips saved without one.
// Fetches are best effort: callers treat any error as "no title".
type TitleService struct {
	client *http.Client
	logger *slog.Logger
}

// NewTitleService creates a new title fetch service.
func NewTitleService(logger *slog.Logger) *TitleService {
	return &TitleService{
		client: &http.Client{Timeout: titleFetchTimeout},
		logger: logger,
	}
}

// FetchTitle requests the URL and extracts a display title, preferring the
// og:title meta tag over the <title> element.
func (s *TitleService) FetchTitle(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "ReelVault/1.0")
	req.Header.Set("Accept", "text/html")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	title, err := extractTitle(io.LimitReader(resp.Body, titleMaxBodySize))
	if err != nil {
		return "", err
	}
	if title == "" {
		return "", fmt.Errorf("no title found")
	}

	s.logger.Debug("fetched page title",
		slog.String("url", url),
		slog.String("title", title))

	return title, nil
}

// extractTitle walks the HTML token stream for og:title or <title>.
func extractTitle(r io.Reader) (string, error) {
	tokenizer := html.NewTokenizer(r)

	var pageTitle string
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or truncated input; return whatever we found.
			return clampTitle(pageTitle), nil

		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			switch token.Data {
			case "meta":
				var property, content string
				for _, attr := range token.Attr {
					switch attr.Key {
					case "property", "name":
						property = attr.Val
					case "content":
						content = attr.Val
					}
				}
				if property == "og:title" && content != "" {
					// og:title wins outright.
					return clampTitle(content), nil
				}
			case "title":
				if tokenizer.Next() == html.TextToken && pageTitle == "" {
					pageTitle = strings.TrimSpace(tokenizer.Token().Data)
				}
			case "body":
				// Past the head, nothing left to find.
				return clampTitle(pageTitle), nil
			}
		}
	}
}

func clampTitle(title string) string {
	title = strings.TrimSpace(title)
	if len(title) > titleMaxLength {
		title = title[:titleMaxLength]
	}
	return title
}
