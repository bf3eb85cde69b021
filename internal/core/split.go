package core

import (
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	DefaultTestSize   = 0.2
	DefaultRandomSeed = 42
)

type Split struct {
	Train []int
	Test  []int
}

// TrainTestSplit partitions indices [0, n) into ceil(testSize*n) test indices
// and the remaining train indices using a permutation drawn from a PCG source
// with the given seed. The same n and seed always give the same partition.
func TrainTestSplit(n int, testSize float64, seed uint64) (Split, error) {
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("test size must be in (0, 1), got %v", testSize)
	}

	nTest := int(math.Ceil(testSize * float64(n)))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return Split{}, fmt.Errorf("cannot split %d samples with test size %v: both partitions must be non-empty", n, testSize)
	}

	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)

	return Split{
		Train: perm[nTest:],
		Test:  perm[:nTest],
	}, nil
}
