// Package clustering partitions embedding vectors into topic groups for the
// analytics report build. It implements mini-batch k-means over fixed-length
// float32 vectors under squared Euclidean distance.
package clustering

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Cluster is one group in a completed partition. Members holds positions
// into the input vector slice. Indices are compacted to 0..len(clusters)-1
// over non-empty clusters only, so a cluster's index is stable within one
// partition but carries no meaning across runs.
type Cluster struct {
	Index   int
	Members []int
}

// Config holds tunables for a partition run. The zero value is usable.
type Config struct {
	// MaxIterations bounds the mini-batch update loop (default 50).
	MaxIterations int
	// BatchSize is the number of vectors sampled per iteration (default 256).
	BatchSize int
	// Rand supplies the random source. Defaults to a fresh source; inject a
	// seeded one for reproducible tests.
	Rand *rand.Rand
}

// Partition groups vectors into at most k clusters and returns the non-empty
// clusters. Every input vector is assigned to exactly one cluster and the
// member sets are pairwise disjoint. k is clamped to the number of vectors.
// Calling with zero vectors is an error: the caller short-circuits the empty
// case before clustering.
func Partition(vectors [][]float32, k int, cfg Config) ([]Cluster, error) {
	n := len(vectors)
	if n == 0 {
		return nil, fmt.Errorf("no vectors to cluster")
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("zero-length vectors cannot be clustered")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, expected %d", i, len(v), dim)
		}
	}

	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}

	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 50
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 256
	}
	if batchSize > n {
		batchSize = n
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	centroids := seedCentroids(vectors, k, rng)

	// Mini-batch updates: each sampled vector pulls its nearest centroid
	// toward itself with a per-centroid learning rate of 1/count.
	counts := make([]int, k)
	for iter := 0; iter < maxIter; iter++ {
		for b := 0; b < batchSize; b++ {
			x := vectors[rng.IntN(n)]
			c := nearest(centroids, x)
			counts[c]++
			eta := 1.0 / float64(counts[c])
			for d := 0; d < dim; d++ {
				centroids[c][d] += eta * (float64(x[d]) - centroids[c][d])
			}
		}
	}

	// Final hard assignment of every vector.
	members := make([][]int, k)
	for i, v := range vectors {
		c := nearest(centroids, v)
		members[c] = append(members[c], i)
	}

	// Compact away empty clusters so indices run 0..m-1.
	clusters := make([]Cluster, 0, k)
	for _, m := range members {
		if len(m) == 0 {
			continue
		}
		clusters = append(clusters, Cluster{Index: len(clusters), Members: m})
	}

	return clusters, nil
}

// seedCentroids picks k initial centroids: a random first pick, then
// repeatedly the vector farthest from all chosen centroids (maximin). With
// well-separated groups this lands one seed per group, which keeps small-k
// partitions from collapsing distinct topics.
func seedCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float64 {
	n := len(vectors)
	dim := len(vectors[0])

	centroids := make([][]float64, 0, k)
	first := rng.IntN(n)
	centroids = append(centroids, toFloat64(vectors[first]))

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = sqDist(centroids[0], vectors[i])
	}

	for len(centroids) < k {
		best := 0
		for i := 1; i < n; i++ {
			if minDist[i] > minDist[best] {
				best = i
			}
		}
		next := toFloat64(vectors[best])
		centroids = append(centroids, next)
		for i := 0; i < n; i++ {
			if d := sqDist(next, vectors[i]); d < minDist[i] {
				minDist[i] = d
			}
		}
	}

	// Copy so mini-batch updates never mutate seed-derived slices in place
	// while distances are still being computed.
	out := make([][]float64, len(centroids))
	for i, c := range centroids {
		out[i] = make([]float64, dim)
		copy(out[i], c)
	}
	return out
}

func nearest(centroids [][]float64, v []float32) int {
	best := 0
	bestDist := math.Inf(1)
	for i, c := range centroids {
		if d := sqDist(c, v); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}

func sqDist(c []float64, v []float32) float64 {
	var sum float64
	for i := range c {
		diff := c[i] - float64(v[i])
		sum += diff * diff
	}
	return sum
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
