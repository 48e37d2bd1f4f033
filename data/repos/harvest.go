package repos

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/neonmaj/threadmine/data"
	"github.com/neonmaj/threadmine/metrics"
)

// HarvestRepo owns the four harvest tables. It is the single writer: Reset
// and Write each run in their own transaction and are never called
// concurrently by the pipeline.
type HarvestRepo struct {
	db *sqlx.DB
}

func NewHarvestRepo(db *sqlx.DB) *HarvestRepo {
	return &HarvestRepo{db}
}

var harvestTables = []string{"replies", "comments", "subreddits", "posts"}

// Reset wipes all four tables in one transaction. The tables themselves are
// created by migrations, so calling Reset repeatedly is always a plain
// delete, never a schema error.
func (r *HarvestRepo) Reset(ctx context.Context) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range harvestTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("wipe %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}

	return nil
}

const insertPostsQuery = `
	INSERT INTO posts (id, title, author, author_flair, created, subreddit, subreddit_id, is_self,
		text_content, num_comments, score, upvote_ratio, stickied, distinguished, url)
	VALUES (:id, :title, :author, :author_flair, :created, :subreddit, :subreddit_id, :is_self,
		:text_content, :num_comments, :score, :upvote_ratio, :stickied, :distinguished, :url)
	ON CONFLICT (id) DO NOTHING`

const insertSubredditsQuery = `
	INSERT INTO subreddits (id, name, description, public_description, created, subscribers)
	VALUES (:id, :name, :description, :public_description, :created, :subscribers)
	ON CONFLICT (id) DO NOTHING`

const insertCommentsQuery = `
	INSERT INTO comments (id, author, created, post_id, text_content, num_replies, score, stickied, distinguished)
	VALUES (:id, :author, :created, :post_id, :text_content, :num_replies, :score, :stickied, :distinguished)
	ON CONFLICT (id) DO NOTHING`

const insertRepliesQuery = `
	INSERT INTO replies (id, author, created, post_id, parent_comment_id, text_content, score, stickied, distinguished)
	VALUES (:id, :author, :created, :post_id, :parent_comment_id, :text_content, :score, :stickied, :distinguished)
	ON CONFLICT (id) DO NOTHING`

// Write persists one run's deduplicated collections as a single transaction,
// parents before children. Duplicate ids are absorbed by the ON CONFLICT
// clause; the first committed row for an id wins. Any failure rolls the
// whole call back.
func (r *HarvestRepo) Write(ctx context.Context, c data.Collections) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	if err := insertChunked(ctx, tx, "posts", insertPostsQuery, c.Posts); err != nil {
		return err
	}
	if err := insertChunked(ctx, tx, "subreddits", insertSubredditsQuery, c.Subreddits); err != nil {
		return err
	}
	if err := insertChunked(ctx, tx, "comments", insertCommentsQuery, c.Comments); err != nil {
		return err
	}
	if err := insertChunked(ctx, tx, "replies", insertRepliesQuery, c.Replies); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}

	return nil
}

// pq caps a statement at 65535 bind parameters, so bulk inserts go in chunks.
const insertChunkSize = 1000

func insertChunked[T any](ctx context.Context, tx *sqlx.Tx, table, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertChunkSize {
		end := min(start+insertChunkSize, len(rows))
		res, err := tx.NamedExecContext(ctx, query, rows[start:end])
		if err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
		if affected, err := res.RowsAffected(); err == nil {
			metrics.RowsInserted.WithLabelValues(table).Add(float64(affected))
		}
	}
	return nil
}
