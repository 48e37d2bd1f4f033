package harvest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/neonmaj/threadmine/data"
	"github.com/neonmaj/threadmine/metrics"
	"github.com/neonmaj/threadmine/models"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence collaborator. Reset and Write are never invoked
// concurrently: the pipeline is the single writer.
type Store interface {
	Reset(ctx context.Context) error
	Write(ctx context.Context, c data.Collections) error
}

// RunLog records per-run bookkeeping outside the harvest transaction.
type RunLog interface {
	CreateRun(ctx context.Context, run data.Run) error
	FinishRun(ctx context.Context, id uuid.UUID, status string, c data.Collections) error
}

type Options struct {
	Query         string
	PostsLimit    int
	CommentsLimit int // max 100
	RepliesLimit  int // max 100
}

type Summary struct {
	RunID      uuid.UUID
	Posts      int
	Subreddits int
	Comments   int
	Replies    int
}

type Pipeline struct {
	logger  *slog.Logger
	source  Source
	store   Store
	runs    RunLog
	workers int
}

func NewPipeline(logger *slog.Logger, source Source, store Store, runs RunLog, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{
		logger:  logger,
		source:  source,
		store:   store,
		runs:    runs,
		workers: workers,
	}
}

// Run executes one full harvest: wipe the store, paginate the search,
// extract batches in parallel, merge at the barrier, and persist everything
// in a single transaction. On any failure the store keeps whatever it held
// before the write began.
func (p *Pipeline) Run(ctx context.Context, opts Options) (Summary, error) {
	runID := uuid.New()
	start := time.Now()
	p.logger.Info("starting harvest run",
		"run_id", runID, "query", opts.Query, "posts_limit", opts.PostsLimit, "workers", p.workers)

	run := data.Run{
		ID:         runID,
		Query:      opts.Query,
		PostsLimit: opts.PostsLimit,
		Status:     data.RunStatusRunning,
		StartedAt:  start,
	}
	if err := p.runs.CreateRun(ctx, run); err != nil {
		return Summary{}, errors.Wrap(err, "record run start")
	}

	merged, err := p.harvest(ctx, opts)
	if err != nil {
		p.failRun(runID, err)
		return Summary{}, err
	}

	collections := merged.Collections()
	if err := p.store.Write(ctx, collections); err != nil {
		err = errors.Wrap(err, "write run")
		p.failRun(runID, err)
		return Summary{}, err
	}

	if err := p.runs.FinishRun(ctx, runID, data.RunStatusComplete, collections); err != nil {
		p.logger.Error("failed to close run record", "run_id", runID, "error", err)
	}

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	summary := Summary{
		RunID:      runID,
		Posts:      len(collections.Posts),
		Subreddits: len(collections.Subreddits),
		Comments:   len(collections.Comments),
		Replies:    len(collections.Replies),
	}
	p.logger.Info("harvest run complete",
		"run_id", runID,
		"posts", summary.Posts,
		"subreddits", summary.Subreddits,
		"comments", summary.Comments,
		"replies", summary.Replies,
		"elapsed_ms", time.Since(start).Milliseconds())

	return summary, nil
}

func (p *Pipeline) harvest(ctx context.Context, opts Options) (Tuples, error) {
	if err := p.store.Reset(ctx); err != nil {
		return Tuples{}, errors.Wrap(err, "reset store")
	}

	paginator := NewPaginator(p.logger, p.source)
	posts, err := paginator.Fetch(ctx, opts.Query, opts.PostsLimit)
	if err != nil {
		return Tuples{}, errors.Wrap(err, "paginate search results")
	}
	p.logger.Info("pagination complete", "posts", len(posts))

	batches := SplitBatches(posts, BatchSize(opts.PostsLimit, p.workers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	var mu sync.Mutex
	results := make([]Tuples, 0, p.workers*2)
	for batch := range batches {
		batch := batch
		g.Go(func() error {
			threads, err := p.materialize(gctx, batch, opts.CommentsLimit)
			if err != nil {
				return err
			}
			tuples := ExtractBatch(threads, opts.CommentsLimit, opts.RepliesLimit)

			mu.Lock()
			results = append(results, tuples)
			mu.Unlock()
			return nil
		})
	}

	// Barrier: no partial results are published downstream.
	if err := g.Wait(); err != nil {
		return Tuples{}, errors.Wrap(err, "extract batches")
	}

	merged := Merge(results)
	metrics.TuplesExtracted.WithLabelValues("post").Add(float64(len(merged.Posts)))
	metrics.TuplesExtracted.WithLabelValues("subreddit").Add(float64(len(merged.Subreddits)))
	metrics.TuplesExtracted.WithLabelValues("comment").Add(float64(len(merged.Comments)))
	metrics.TuplesExtracted.WithLabelValues("reply").Add(float64(len(merged.Replies)))

	return merged, nil
}

// materialize turns a batch of post stubs into plain thread objects. A
// thread that cannot be fetched is skipped whole, so no orphaned comment or
// reply tuples can be produced for it.
func (p *Pipeline) materialize(ctx context.Context, batch []models.Post, commentLimit int) ([]models.Thread, error) {
	threads := make([]models.Thread, 0, len(batch))

	for _, post := range batch {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		comments, err := p.source.Thread(ctx, post.ID, commentLimit)
		if err != nil {
			p.logger.Warn("skipping thread", "post_id", post.ID, "error", err)
			continue
		}

		about, err := p.source.About(ctx, post.Subreddit)
		if err != nil {
			p.logger.Warn("skipping thread, subreddit unavailable", "post_id", post.ID, "subreddit", post.Subreddit, "error", err)
			continue
		}

		threads = append(threads, models.Thread{
			Post:      post,
			Subreddit: about,
			Comments:  comments,
		})
	}

	return threads, nil
}

func (p *Pipeline) failRun(runID uuid.UUID, cause error) {
	// Best effort, detached from the cancelled run context.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.runs.FinishRun(ctx, runID, data.RunStatusFailed, data.Collections{}); err != nil {
		p.logger.Error("failed to mark run failed", "run_id", runID, "error", err)
	}
	p.logger.Error("harvest run failed", "run_id", runID, "error", cause)
}
