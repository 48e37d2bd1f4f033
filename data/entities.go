package data

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Post, Subreddit, Comment and Reply are the flat tuples the extractor
// produces and the writer persists. They are plain comparable structs on
// purpose: the aggregator dedupes them by full-tuple equality using them as
// map keys.

type Post struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Author        sql.NullString `db:"author"`
	AuthorFlair   sql.NullString `db:"author_flair"`
	Created       time.Time      `db:"created"`
	Subreddit     string         `db:"subreddit"`
	SubredditID   string         `db:"subreddit_id"`
	IsSelf        bool           `db:"is_self"`
	TextContent   sql.NullString `db:"text_content"`
	NumComments   int            `db:"num_comments"`
	Score         int            `db:"score"`
	UpvoteRatio   float64        `db:"upvote_ratio"`
	Stickied      bool           `db:"stickied"`
	Distinguished sql.NullString `db:"distinguished"`
	URL           string         `db:"url"`
}

type Subreddit struct {
	ID                string    `db:"id"`
	Name              string    `db:"name"`
	Description       string    `db:"description"`
	PublicDescription string    `db:"public_description"`
	Created           time.Time `db:"created"`
	Subscribers       int64     `db:"subscribers"`
}

type Comment struct {
	ID          string         `db:"id"`
	Author      sql.NullString `db:"author"`
	Created     time.Time      `db:"created"`
	PostID      string         `db:"post_id"`
	TextContent string         `db:"text_content"`
	// NumReplies counts only the replies captured under the configured
	// reply limit, not the remote total.
	NumReplies    int            `db:"num_replies"`
	Score         int            `db:"score"`
	Stickied      bool           `db:"stickied"`
	Distinguished sql.NullString `db:"distinguished"`
}

type Reply struct {
	ID      string         `db:"id"`
	Author  sql.NullString `db:"author"`
	Created time.Time      `db:"created"`
	// PostID is a denormalized back-reference to the owning post.
	PostID          string         `db:"post_id"`
	ParentCommentID string         `db:"parent_comment_id"`
	TextContent     string         `db:"text_content"`
	Score           int            `db:"score"`
	Stickied        bool           `db:"stickied"`
	Distinguished   sql.NullString `db:"distinguished"`
}

type Run struct {
	ID         uuid.UUID    `db:"id"`
	Query      string       `db:"query"`
	PostsLimit int          `db:"posts_limit"`
	Status     string       `db:"status"`
	Posts      int          `db:"posts"`
	Subreddits int          `db:"subreddits"`
	Comments   int          `db:"comments"`
	Replies    int          `db:"replies"`
	StartedAt  time.Time    `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

const (
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusFailed   = "failed"
)

// Collections is the aggregator's reduced output, handed to the writer as
// one atomic unit.
type Collections struct {
	Posts      []Post
	Subreddits []Subreddit
	Comments   []Comment
	Replies    []Reply
}
