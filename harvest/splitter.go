package harvest

import "github.com/neonmaj/threadmine/models"

// BatchSize balances per-worker overhead against parallelism: roughly two
// batches per worker, never below one item.
func BatchSize(totalLimit, workers int) int {
	if workers < 1 {
		workers = 1
	}
	size := totalLimit / (2 * workers)
	if size < 1 {
		size = 1
	}
	return size
}

// SplitBatches partitions posts into fixed-size chunks, preserving order
// within and across batches. Batches are delivered lazily over the returned
// channel; the last one may be shorter.
func SplitBatches(posts []models.Post, batchSize int) <-chan []models.Post {
	if batchSize < 1 {
		batchSize = 1
	}

	out := make(chan []models.Post)
	go func() {
		defer close(out)
		for start := 0; start < len(posts); start += batchSize {
			end := min(start+batchSize, len(posts))
			out <- posts[start:end:end]
		}
	}()

	return out
}
