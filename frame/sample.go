package frame

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Sample returns a Bernoulli row sample without replacement. For a fixed
// seed and the same frame snapshot the result is fully deterministic;
// determinism is not promised across different physical layouts of the same
// logical data, but a Frame is a single in-memory snapshot so the question
// does not arise here.
func Sample(f *Frame, fraction float64, seed int64) (*Frame, error) {
	if fraction < 0 || fraction > 1 {
		return nil, errors.Errorf("sample fraction %g outside [0,1]", fraction)
	}
	rng := rand.New(rand.NewSource(seed))
	idx := make([]int, 0, int(float64(f.rows)*fraction)+1)
	for i := 0; i < f.rows; i++ {
		if rng.Float64() < fraction {
			idx = append(idx, i)
		}
	}
	return f.gather(idx), nil
}

// Partitions redistributes the frame's rows round-robin into exactly n
// shards. No row is lost or duplicated; only the physical layout changes.
// Shards may be empty when n exceeds the row count.
func Partitions(f *Frame, n int) ([]*Frame, error) {
	if n < 1 {
		return nil, errors.Errorf("partition count %d, want >= 1", n)
	}
	buckets := make([][]int, n)
	for i := 0; i < f.rows; i++ {
		buckets[i%n] = append(buckets[i%n], i)
	}
	out := make([]*Frame, n)
	for p, idx := range buckets {
		out[p] = f.gather(idx)
	}
	return out, nil
}
