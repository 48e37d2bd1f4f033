package harvest

import "github.com/neonmaj/threadmine/data"

// Merge unions every batch's tuple sets into one. Union is commutative and
// associative, so the final content does not depend on batch completion
// order. Two snapshots of the same id with different field values both
// survive here; first-write-wins is resolved at insert time by primary-key
// conflict.
func Merge(results []Tuples) Tuples {
	merged := NewTuples()

	for _, r := range results {
		for post := range r.Posts {
			merged.Posts[post] = struct{}{}
		}
		for subreddit := range r.Subreddits {
			merged.Subreddits[subreddit] = struct{}{}
		}
		for comment := range r.Comments {
			merged.Comments[comment] = struct{}{}
		}
		for reply := range r.Replies {
			merged.Replies[reply] = struct{}{}
		}
	}

	return merged
}

// Collections flattens the merged sets into the slices the writer binds.
func (t Tuples) Collections() data.Collections {
	c := data.Collections{
		Posts:      make([]data.Post, 0, len(t.Posts)),
		Subreddits: make([]data.Subreddit, 0, len(t.Subreddits)),
		Comments:   make([]data.Comment, 0, len(t.Comments)),
		Replies:    make([]data.Reply, 0, len(t.Replies)),
	}
	for post := range t.Posts {
		c.Posts = append(c.Posts, post)
	}
	for subreddit := range t.Subreddits {
		c.Subreddits = append(c.Subreddits, subreddit)
	}
	for comment := range t.Comments {
		c.Comments = append(c.Comments, comment)
	}
	for reply := range t.Replies {
		c.Replies = append(c.Replies, reply)
	}
	return c
}
