package harvest

import (
	"database/sql"
	"time"

	"github.com/neonmaj/threadmine/data"
	"github.com/neonmaj/threadmine/models"
)

// Tuples holds one batch's flat tuples as sets. The structs are comparable,
// so full-tuple equality is exactly map-key equality.
type Tuples struct {
	Posts      map[data.Post]struct{}
	Subreddits map[data.Subreddit]struct{}
	Comments   map[data.Comment]struct{}
	Replies    map[data.Reply]struct{}
}

func NewTuples() Tuples {
	return Tuples{
		Posts:      make(map[data.Post]struct{}),
		Subreddits: make(map[data.Subreddit]struct{}),
		Comments:   make(map[data.Comment]struct{}),
		Replies:    make(map[data.Reply]struct{}),
	}
}

// ExtractBatch walks each materialized thread down to two levels and emits
// the four tuple sets. It is a pure transform: no I/O, no shared state, so
// workers can run it on independent batches.
//
// A "more" placeholder at either level silently ends that level; the
// placeholder itself is never emitted. A reply's parent is the enclosing
// comment's bare id, not the t1_-prefixed field from the wire.
func ExtractBatch(threads []models.Thread, commentLimit, replyLimit int) Tuples {
	t := NewTuples()

	for _, thread := range threads {
		post := thread.Post
		t.Posts[data.Post{
			ID:            post.ID,
			Title:         post.Title,
			Author:        nullAuthor(post.Author),
			AuthorFlair:   nullable(post.AuthorFlairText),
			Created:       fromUTC(post.CreatedUTC),
			Subreddit:     post.Subreddit,
			SubredditID:   post.SubredditID,
			IsSelf:        post.IsSelf,
			TextContent:   nullable(post.Selftext),
			NumComments:   post.NumComments,
			Score:         post.Score,
			UpvoteRatio:   post.UpvoteRatio,
			Stickied:      post.Stickied,
			Distinguished: nullable(post.Distinguished),
			URL:           post.URL,
		}] = struct{}{}

		t.Subreddits[data.Subreddit{
			ID:                thread.Subreddit.ID,
			Name:              thread.Subreddit.Name,
			Description:       thread.Subreddit.Description,
			PublicDescription: thread.Subreddit.PublicDescription,
			Created:           fromUTC(thread.Subreddit.CreatedUTC),
			Subscribers:       thread.Subreddit.Subscribers,
		}] = struct{}{}

		extractComments(&t, post.ID, thread.Comments, commentLimit, replyLimit)
	}

	return t
}

func extractComments(t *Tuples, postID string, children []models.CommentChild, commentLimit, replyLimit int) {
	for i, child := range children {
		if i >= commentLimit || child.Kind == models.KindMore {
			break
		}
		comment := child.Data

		numReplies := 0
		for j, replyChild := range comment.Replies.Children() {
			if j >= replyLimit || replyChild.Kind == models.KindMore {
				break
			}
			reply := replyChild.Data

			t.Replies[data.Reply{
				ID:              reply.ID,
				Author:          nullAuthor(reply.Author),
				Created:         fromUTC(reply.CreatedUTC),
				PostID:          postID,
				ParentCommentID: comment.ID,
				TextContent:     reply.Body,
				Score:           reply.Score,
				Stickied:        reply.Stickied,
				Distinguished:   nullable(reply.Distinguished),
			}] = struct{}{}
			numReplies++
		}

		t.Comments[data.Comment{
			ID:            comment.ID,
			Author:        nullAuthor(comment.Author),
			Created:       fromUTC(comment.CreatedUTC),
			PostID:        postID,
			TextContent:   comment.Body,
			NumReplies:    numReplies,
			Score:         comment.Score,
			Stickied:      comment.Stickied,
			Distinguished: nullable(comment.Distinguished),
		}] = struct{}{}
	}
}

// nullAuthor maps authors whose account no longer exists to NULL. Body text
// is never treated this way: deletion sentinels in content are stored raw.
func nullAuthor(name string) sql.NullString {
	if name == "" || name == "[deleted]" {
		return sql.NullString{}
	}
	return sql.NullString{String: name, Valid: true}
}

func nullable(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromUTC(createdUTC float64) time.Time {
	return time.Unix(int64(createdUTC), 0).UTC()
}
