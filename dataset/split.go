package dataset

import (
	"math"
	"math/rand"

	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

func nan() float64 { return math.NaN() }

// TrainTestSplit shuffles the row positions with a source seeded by seed and
// puts the first ceil(testSize*n) of them in the test table and the rest in
// the train table. The same table, testSize and seed always give the same
// partition. Both sides must end up non-empty.
func TrainTestSplit(t *Table, testSize float64, seed int64) (train, test *Table, err error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, errors.NewValidationError("test_size", "must be in (0, 1)", testSize)
	}
	n := t.Len()
	// 1e-9 keeps products like 0.7*10 = 7.000000000000001 from rounding up.
	nTest := int(math.Ceil(testSize*float64(n) - 1e-9))
	nTrain := n - nTest
	if nTest < 1 || nTrain < 1 {
		return nil, nil, errors.NewValidationError("test_size",
			"split leaves an empty train or test set", n)
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	return t.Take(perm[nTest:]), t.Take(perm[:nTest]), nil
}
