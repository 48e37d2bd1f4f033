package models

import "encoding/json"

const (
	// KindComment marks a real comment node in a listing.
	KindComment = "t1"
	// KindMore is the placeholder reddit returns in place of comments that
	// were not fetched. It is a stop signal, never data.
	KindMore = "more"
)

type SearchListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data Post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type Post struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	AuthorFlairText string  `json:"author_flair_text"`
	CreatedUTC      float64 `json:"created_utc"`
	Subreddit       string  `json:"subreddit"`
	SubredditID     string  `json:"subreddit_id"`
	IsSelf          bool    `json:"is_self"`
	Selftext        string  `json:"selftext"`
	NumComments     int     `json:"num_comments"`
	Score           int     `json:"score"`
	UpvoteRatio     float64 `json:"upvote_ratio"`
	Stickied        bool    `json:"stickied"`
	Distinguished   string  `json:"distinguished"`
	URL             string  `json:"url"`
}

type SubredditAbout struct {
	Data Subreddit `json:"data"`
}

type Subreddit struct {
	ID                string  `json:"id"`
	Name              string  `json:"display_name"`
	Description       string  `json:"description"`
	PublicDescription string  `json:"public_description"`
	CreatedUTC        float64 `json:"created_utc"`
	Subscribers       int64   `json:"subscribers"`
}

type CommentListing struct {
	Data struct {
		Children []CommentChild `json:"children"`
	} `json:"data"`
}

type CommentChild struct {
	Kind string  `json:"kind"` // KindComment or KindMore
	Data Comment `json:"data"`
}

type Comment struct {
	ID            string  `json:"id"`
	Author        string  `json:"author"`
	Body          string  `json:"body"`
	CreatedUTC    float64 `json:"created_utc"`
	ParentID      string  `json:"parent_id"`
	Score         int     `json:"score"`
	Stickied      bool    `json:"stickied"`
	Distinguished string  `json:"distinguished"`
	Replies       Replies `json:"replies"`
}

// Replies is either a nested listing or the empty string on the wire, so it
// needs a custom unmarshal.
type Replies struct {
	Listing *CommentListing
}

func (r *Replies) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == `""` || string(b) == "null" {
		r.Listing = nil
		return nil
	}

	var listing CommentListing
	if err := json.Unmarshal(b, &listing); err != nil {
		return err
	}
	r.Listing = &listing

	return nil
}

func (r Replies) Children() []CommentChild {
	if r.Listing == nil {
		return nil
	}
	return r.Listing.Data.Children
}

// Thread is one fully materialized thread object: the post, its parent
// community snapshot, and the top-level comment tree. Workers receive these
// as plain data, never a live handle to the source.
type Thread struct {
	Post      Post
	Subreddit Subreddit
	Comments  []CommentChild
}
