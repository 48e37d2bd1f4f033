package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/neonmaj/threadmine/data"
	"github.com/neonmaj/threadmine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu        sync.Mutex
	resets    int
	writes    []data.Collections
	failWrite error
}

func (s *fakeStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resets++
	return nil
}

func (s *fakeStore) Write(ctx context.Context, c data.Collections) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWrite != nil {
		return s.failWrite
	}
	s.writes = append(s.writes, c)
	return nil
}

type fakeRunLog struct {
	mu       sync.Mutex
	created  []data.Run
	statuses []string
}

func (l *fakeRunLog) CreateRun(ctx context.Context, run data.Run) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.created = append(l.created, run)
	return nil
}

func (l *fakeRunLog) FinishRun(ctx context.Context, id uuid.UUID, status string, c data.Collections) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.statuses = append(l.statuses, status)
	return nil
}

func populatedSource(posts int) *fakeSource {
	source := &fakeSource{
		posts:   makePosts(posts),
		threads: make(map[string][]models.CommentChild),
		abouts: map[string]models.Subreddit{
			"golang": {ID: "t5_abc", Name: "golang", Subscribers: 100},
		},
	}
	for i := 0; i < posts; i++ {
		postID := fmt.Sprintf("p%d", i)
		source.threads[postID] = []models.CommentChild{
			commentNode("c"+postID+"a", "alice", "comment a",
				commentNode("r"+postID+"a", "bob", "reply a")),
			commentNode("c"+postID+"b", "carol", "comment b"),
		}
	}
	return source
}

func testOptions() Options {
	return Options{Query: "anything", PostsLimit: 10, CommentsLimit: 25, RepliesLimit: 25}
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	source := populatedSource(10)
	store := &fakeStore{}
	runs := &fakeRunLog{}
	pipeline := NewPipeline(testLogger(), source, store, runs, 4)

	summary, err := pipeline.Run(context.Background(), testOptions())

	require.NoError(t, err)
	assert.Equal(t, 1, store.resets)
	require.Len(t, store.writes, 1, "exactly one atomic write per run")

	written := store.writes[0]
	assert.Len(t, written.Posts, 10)
	assert.Len(t, written.Subreddits, 1)
	assert.Len(t, written.Comments, 20)
	assert.Len(t, written.Replies, 10)

	assert.Equal(t, 10, summary.Posts)
	assert.Equal(t, 20, summary.Comments)
	assert.Equal(t, []string{data.RunStatusComplete}, runs.statuses)
	require.Len(t, runs.created, 1)
	assert.Equal(t, "anything", runs.created[0].Query)
}

func TestPipeline_Run_ReferentialCompleteness(t *testing.T) {
	source := populatedSource(10)
	store := &fakeStore{}
	pipeline := NewPipeline(testLogger(), source, store, &fakeRunLog{}, 3)

	_, err := pipeline.Run(context.Background(), testOptions())
	require.NoError(t, err)

	written := store.writes[0]
	postIDs := map[string]bool{}
	for _, post := range written.Posts {
		postIDs[post.ID] = true
	}
	commentIDs := map[string]bool{}
	for _, comment := range written.Comments {
		assert.True(t, postIDs[comment.PostID], "comment %s references post %s from this run", comment.ID, comment.PostID)
		commentIDs[comment.ID] = true
	}
	for _, reply := range written.Replies {
		assert.True(t, postIDs[reply.PostID], "reply %s references post %s from this run", reply.ID, reply.PostID)
		assert.True(t, commentIDs[reply.ParentCommentID], "reply %s references comment %s from this run", reply.ID, reply.ParentCommentID)
	}
}

func TestPipeline_Run_DeterministicAcrossWorkerCounts(t *testing.T) {
	var baseline data.Collections
	for i, workers := range []int{1, 2, 8} {
		source := populatedSource(10)
		store := &fakeStore{}
		pipeline := NewPipeline(testLogger(), source, store, &fakeRunLog{}, workers)

		_, err := pipeline.Run(context.Background(), testOptions())
		require.NoError(t, err)

		written := store.writes[0]
		if i == 0 {
			baseline = written
			continue
		}
		assert.ElementsMatch(t, baseline.Posts, written.Posts)
		assert.ElementsMatch(t, baseline.Comments, written.Comments)
		assert.ElementsMatch(t, baseline.Replies, written.Replies)
	}
}

func TestPipeline_Run_WriteFailureFailsRun(t *testing.T) {
	source := populatedSource(5)
	store := &fakeStore{failWrite: errors.New("connection lost")}
	runs := &fakeRunLog{}
	pipeline := NewPipeline(testLogger(), source, store, runs, 2)

	_, err := pipeline.Run(context.Background(), testOptions())

	require.Error(t, err)
	assert.Equal(t, []string{data.RunStatusFailed}, runs.statuses)
}

func TestPipeline_Run_SkipsUnfetchableThreads(t *testing.T) {
	source := populatedSource(5)
	delete(source.threads, "p2")
	store := &fakeStore{}
	pipeline := NewPipeline(testLogger(), source, store, &fakeRunLog{}, 2)

	_, err := pipeline.Run(context.Background(), testOptions())

	require.NoError(t, err)
	written := store.writes[0]
	assert.Len(t, written.Posts, 4, "the whole thread is skipped, never a partial one")
	for _, comment := range written.Comments {
		assert.NotEqual(t, "p2", comment.PostID)
	}
}

func TestPipeline_Run_CancelledContext(t *testing.T) {
	source := populatedSource(5)
	store := &fakeStore{}
	pipeline := NewPipeline(testLogger(), source, store, &fakeRunLog{}, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Run(ctx, testOptions())

	require.Error(t, err)
	assert.Empty(t, store.writes, "no partial write after cancellation")
}
