package harvest

import (
	"fmt"
	"testing"

	"github.com/neonmaj/threadmine/models"
	"github.com/stretchr/testify/assert"
)

func collectBatches(ch <-chan []models.Post) [][]models.Post {
	var batches [][]models.Post
	for batch := range ch {
		batches = append(batches, batch)
	}
	return batches
}

func TestSplitBatches_FixedSizeWithShortTail(t *testing.T) {
	batches := collectBatches(SplitBatches(makePosts(10), 4))

	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], 4)
	assert.Len(t, batches[1], 4)
	assert.Len(t, batches[2], 2)
}

func TestSplitBatches_PreservesOrder(t *testing.T) {
	batches := collectBatches(SplitBatches(makePosts(10), 3))

	i := 0
	for _, batch := range batches {
		for _, post := range batch {
			assert.Equal(t, fmt.Sprintf("p%d", i), post.ID)
			i++
		}
	}
	assert.Equal(t, 10, i)
}

func TestSplitBatches_EmptyInput(t *testing.T) {
	batches := collectBatches(SplitBatches(nil, 5))
	assert.Empty(t, batches)
}

func TestSplitBatches_ZeroSizeBecomesOne(t *testing.T) {
	batches := collectBatches(SplitBatches(makePosts(3), 0))
	assert.Len(t, batches, 3)
}

func TestBatchSize_Heuristic(t *testing.T) {
	assert.Equal(t, 18, BatchSize(300, 8))
	assert.Equal(t, 1, BatchSize(10, 8), "never below one item")
	assert.Equal(t, 50, BatchSize(100, 0), "zero workers treated as one")
}
