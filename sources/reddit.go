package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strconv"
	"sync"
	"time"

	"github.com/neonmaj/threadmine/models"
	"github.com/sethvargo/go-retry"
)

// Client talks to the reddit JSON endpoints. It is safe for concurrent use:
// the underlying http.Client is shareable and the about cache is guarded.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	userAgent  string

	mu         sync.Mutex
	aboutCache map[string]models.Subreddit
}

func NewClient(logger *slog.Logger, httpClient *http.Client, baseURL, userAgent string) *Client {
	return &Client{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
		aboutCache: make(map[string]models.Subreddit),
	}
}

// Search returns one page of posts matching the query. The after cursor is
// the bare id of the previous page's last post; the t3_ fullname prefix the
// wire format wants is applied here so callers never see it.
func (c *Client) Search(ctx context.Context, query string, limit int, after string) ([]models.Post, error) {
	params := neturl.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")
	if after != "" {
		params.Set("after", "t3_"+after)
	}
	url := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())

	var listing models.SearchListing
	if err := c.fetch(ctx, url, &listing); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	posts := make([]models.Post, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		posts = append(posts, child.Data)
	}

	return posts, nil
}

// Thread returns the top-level comment tree of a post, two levels deep.
// Nodes past the requested limit come back as "more" placeholders.
func (c *Client) Thread(ctx context.Context, postID string, commentLimit int) ([]models.CommentChild, error) {
	params := neturl.Values{}
	params.Set("limit", strconv.Itoa(commentLimit))
	params.Set("depth", "2")
	params.Set("raw_json", "1")
	url := fmt.Sprintf("%s/comments/%s.json?%s", c.baseURL, postID, params.Encode())

	// The thread endpoint responds with a two-element array: the post
	// listing, then the comment listing.
	var pages []json.RawMessage
	if err := c.fetch(ctx, url, &pages); err != nil {
		return nil, fmt.Errorf("thread %s: %w", postID, err)
	}
	if len(pages) < 2 {
		return nil, fmt.Errorf("thread %s: unexpected response shape", postID)
	}

	var listing models.CommentListing
	if err := json.Unmarshal(pages[1], &listing); err != nil {
		return nil, fmt.Errorf("thread %s: decode comments: %w", postID, err)
	}

	return listing.Data.Children, nil
}

// About returns the subreddit snapshot, cached for the lifetime of the
// client so one run observes each community at most once per process.
func (c *Client) About(ctx context.Context, subreddit string) (models.Subreddit, error) {
	c.mu.Lock()
	cached, ok := c.aboutCache[subreddit]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	url := fmt.Sprintf("%s/r/%s/about.json?raw_json=1", c.baseURL, neturl.PathEscape(subreddit))

	var about models.SubredditAbout
	if err := c.fetch(ctx, url, &about); err != nil {
		return models.Subreddit{}, fmt.Errorf("about r/%s: %w", subreddit, err)
	}

	c.mu.Lock()
	c.aboutCache[subreddit] = about.Data
	c.mu.Unlock()

	return about.Data, nil
}

func (c *Client) fetch(ctx context.Context, url string, dest any) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			c.logger.Warn("retryable upstream status", "url", url, "status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return err
		}

		return nil
	})
}
