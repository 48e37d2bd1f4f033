package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/neonmaj/threadmine/data"
)

type RunRepo struct {
	db *sqlx.DB
}

func NewRunRepo(db *sqlx.DB) *RunRepo {
	return &RunRepo{db}
}

func (r *RunRepo) CreateRun(ctx context.Context, run data.Run) error {
	query := `
		INSERT INTO harvest_runs (id, query, posts_limit, status, started_at)
		VALUES (:id, :query, :posts_limit, :status, :started_at)`

	_, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}

	return nil
}

func (r *RunRepo) FinishRun(ctx context.Context, id uuid.UUID, status string, c data.Collections) error {
	query := `
		UPDATE harvest_runs
		SET status = $2, posts = $3, subreddits = $4, comments = $5, replies = $6, finished_at = $7
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, status,
		len(c.Posts), len(c.Subreddits), len(c.Comments), len(c.Replies), time.Now())
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	return nil
}
