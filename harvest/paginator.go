package harvest

import (
	"context"
	"log/slog"

	"github.com/neonmaj/threadmine/metrics"
	"github.com/neonmaj/threadmine/models"
	"github.com/pkg/errors"
)

// Source is the upstream collaborator: something that can be asked for one
// page of thread objects after a cursor, and for the nested pieces of a
// single thread. Retry policy lives behind this interface, not here.
type Source interface {
	Search(ctx context.Context, query string, limit int, after string) ([]models.Post, error)
	Thread(ctx context.Context, postID string, commentLimit int) ([]models.CommentChild, error)
	About(ctx context.Context, subreddit string) (models.Subreddit, error)
}

const (
	// NativeLimit is the most items reddit returns per request.
	NativeLimit = 100
	// MaxRunItems caps one run's total requested items to respect the
	// upstream rate budget.
	MaxRunItems = 10000
)

// Paginator stitches per-request result pages into one ordered sequence.
// Requests are strictly sequential: each page's cursor is the previous
// page's last post id.
type Paginator struct {
	logger *slog.Logger
	source Source
}

func NewPaginator(logger *slog.Logger, source Source) *Paginator {
	return &Paginator{logger: logger, source: source}
}

// Fetch asks the source for up to totalLimit posts, issuing
// ceil(totalLimit/NativeLimit) requests with the remainder last. A short
// page means the source is exhausted; the sequence just ends early.
func (p *Paginator) Fetch(ctx context.Context, query string, totalLimit int) ([]models.Post, error) {
	if totalLimit > MaxRunItems {
		p.logger.Warn("posts limit exceeds run cap, clamping", "requested", totalLimit, "cap", MaxRunItems)
		totalLimit = MaxRunItems
	}

	posts := make([]models.Post, 0, totalLimit)
	after := ""
	for len(posts) < totalLimit {
		want := min(NativeLimit, totalLimit-len(posts))

		page, err := p.source.Search(ctx, query, want, after)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch page after %q", after)
		}

		metrics.PagesFetched.Inc()
		metrics.ItemsPaginated.Add(float64(len(page)))
		posts = append(posts, page...)

		if len(page) < want {
			p.logger.Debug("source exhausted", "got", len(posts), "wanted", totalLimit)
			break
		}
		after = page[len(page)-1].ID
	}

	return posts, nil
}
