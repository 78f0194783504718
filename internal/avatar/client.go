// Package avatar resolves player avatar images to the short codes the map
// renderer uses as fighter tokens.
package avatar

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// DefaultTokenURL is the public token metadata endpoint.
const DefaultTokenURL = "https://token.otfbm.io/meta/"

// maxPageSize caps how much of a token page is read.
const maxPageSize = 64 << 10

// ErrEmptyCode is returned when the token page has no text in its body.
var ErrEmptyCode = errors.New("avatar: token page has an empty body")

// Config configures the lookup client.
type Config struct {
	TokenURL   string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client fetches short codes from the token service.
type Client struct {
	cfg Config
}

// NewClient builds a client, filling in defaults for empty fields.
func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.TokenURL) == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Client{cfg: cfg}
}

// ShortCode asks the token service for the code of an avatar image. The
// image address is base64 encoded onto the endpoint and the code is the text
// content of the returned page's body.
func (c *Client) ShortCode(ctx context.Context, avatarURL string) (string, error) {
	if strings.TrimSpace(avatarURL) == "" {
		return "", fmt.Errorf("avatar: empty image address")
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	endpoint := c.cfg.TokenURL + base64.StdEncoding.EncodeToString([]byte(avatarURL))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("avatar: build request: %w", err)
	}
	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("avatar: fetch token page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar: token service returned %s", resp.Status)
	}

	code, err := BodyText(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", ErrEmptyCode
	}
	return code, nil
}

// BodyText parses an HTML document and returns the trimmed text inside its
// body element.
func BodyText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("avatar: parse token page: %w", err)
	}
	body := findElement(doc, "body")
	if body == nil {
		return "", nil
	}
	var b strings.Builder
	collectText(body, &b)
	return strings.TrimSpace(b.String()), nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
