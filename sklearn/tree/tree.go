// Package tree implements a CART regression tree with the squared-error
// criterion.
package tree

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aayushagarwaltech-bot/Transportation/core/model"
	"github.com/aayushagarwaltech-bot/Transportation/metrics"
	"github.com/aayushagarwaltech-bot/Transportation/pkg/errors"
)

// leaf marks a node without a split.
const leaf = -1

// Node is one entry of the flattened tree. Internal nodes send a sample left
// when x[Feature] <= Threshold.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64 // mean target of the training samples reaching the node
	NSamples  int
	Impurity  float64 // mean squared deviation from Value
}

// IsLeaf reports whether the node has no split.
func (n Node) IsLeaf() bool { return n.Feature == leaf }

// DecisionTreeRegressor is a regression tree. Fields are exported so the
// fitted tree can be gob-encoded.
type DecisionTreeRegressor struct {
	State *model.StateManager

	MaxDepth        int   // 0 means unlimited
	MinSamplesSplit int   // minimum samples required to split a node
	MinSamplesLeaf  int   // minimum samples in each child
	MaxFeatures     int   // features tried per split; 0 means all
	RandomState     int64 // seeds feature sub-sampling

	Nodes []Node
}

// Option configures a DecisionTreeRegressor.
type Option func(*DecisionTreeRegressor)

// WithMaxDepth limits the depth of the tree. 0 grows until the other
// stopping rules apply.
func WithMaxDepth(depth int) Option {
	return func(t *DecisionTreeRegressor) { t.MaxDepth = depth }
}

// WithMinSamplesSplit sets the minimum node size that may be split.
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf sets the minimum size of a leaf.
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures sets how many randomly chosen features are tried at each
// split.
func WithMaxFeatures(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MaxFeatures = n }
}

// WithRandomState seeds the feature sub-sampling.
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor creates an unfitted tree.
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		State:           model.NewStateManager(),
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Fit grows the tree on X (n_samples x n_features) and y (n_samples x 1).
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) error {
	data, target, err := ValidateFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	n := len(target)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	_, nFeatures := X.Dims()
	return t.FitSamples(data, nFeatures, target, idx, rand.New(rand.NewSource(t.RandomState)))
}

// ValidateFitInput checks the shapes and values of a training set and
// returns X flattened row-major and y as a slice.
func ValidateFitInput(op string, X, y mat.Matrix) ([]float64, []float64, error) {
	rows, cols := X.Dims()
	ry, cy := y.Dims()
	if rows == 0 || cols == 0 {
		return nil, nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != rows {
		return nil, nil, errors.NewDimensionError(op, rows, ry, 0)
	}
	if cy != 1 {
		return nil, nil, errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return nil, nil, err
	}
	if err := errors.CheckMatrix(op, y); err != nil {
		return nil, nil, err
	}

	data := make([]float64, rows*cols)
	target := make([]float64, rows)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data[i*cols+j] = X.At(i, j)
		}
		target[i] = y.At(i, 0)
	}
	return data, target, nil
}

// FitSamples grows the tree from the rows listed in samples, which may repeat
// (bootstrap draws). data is row-major with nFeatures columns. rng drives
// feature sub-sampling when MaxFeatures is set.
func (t *DecisionTreeRegressor) FitSamples(data []float64, nFeatures int, y []float64, samples []int, rng *rand.Rand) error {
	if len(samples) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if t.State == nil {
		t.State = model.NewStateManager()
	}
	b := &builder{
		tree:      t,
		data:      data,
		y:         y,
		nFeatures: nFeatures,
		rng:       rng,
		minLeaf:   max(t.MinSamplesLeaf, 1),
		minSplit:  max(t.MinSamplesSplit, 2),
	}
	t.Nodes = t.Nodes[:0]
	b.grow(append([]int(nil), samples...), 0)
	t.State.SetFitted(nFeatures, len(samples))
	return nil
}

type builder struct {
	tree      *DecisionTreeRegressor
	data      []float64
	y         []float64
	nFeatures int
	rng       *rand.Rand
	minLeaf   int
	minSplit  int
}

func (b *builder) x(row, feature int) float64 {
	return b.data[row*b.nFeatures+feature]
}

// grow appends the subtree for samples and returns the index of its root.
func (b *builder) grow(samples []int, depth int) int {
	var sum, sumSq float64
	for _, s := range samples {
		sum += b.y[s]
		sumSq += b.y[s] * b.y[s]
	}
	n := float64(len(samples))
	mean := sum / n
	impurity := math.Max(sumSq/n-mean*mean, 0)

	id := len(b.tree.Nodes)
	b.tree.Nodes = append(b.tree.Nodes, Node{
		Feature:  leaf,
		Left:     leaf,
		Right:    leaf,
		Value:    mean,
		NSamples: len(samples),
		Impurity: impurity,
	})

	if len(samples) < b.minSplit || impurity == 0 ||
		(b.tree.MaxDepth > 0 && depth >= b.tree.MaxDepth) {
		return id
	}

	feature, threshold, ok := b.bestSplit(samples, sum, sumSq)
	if !ok {
		return id
	}

	var left, right []int
	for _, s := range samples {
		if b.x(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	node := &b.tree.Nodes[id]
	node.Feature = feature
	node.Threshold = threshold
	node.Left = l
	node.Right = r
	return id
}

// candidates returns the features tried at one split, in ascending order.
func (b *builder) candidates() []int {
	k := b.tree.MaxFeatures
	if k <= 0 || k >= b.nFeatures {
		all := make([]int, b.nFeatures)
		for i := range all {
			all[i] = i
		}
		return all
	}
	picked := b.rng.Perm(b.nFeatures)[:k]
	sort.Ints(picked)
	return picked
}

// bestSplit scans every candidate feature for the threshold minimising the
// summed squared error of the two children. Ties keep the first feature and
// the lowest threshold found, so the result is deterministic.
func (b *builder) bestSplit(samples []int, sum, sumSq float64) (int, float64, bool) {
	n := len(samples)
	bestFeature, bestThreshold := -1, 0.0
	bestCost := sumSq - sum*sum/float64(n)

	order := make([]int, n)
	for _, f := range b.candidates() {
		copy(order, samples)
		sort.SliceStable(order, func(i, j int) bool { return b.x(order[i], f) < b.x(order[j], f) })

		var leftSum, leftSq float64
		for i := 0; i < n-1; i++ {
			v := b.y[order[i]]
			leftSum += v
			leftSq += v * v

			nl := i + 1
			nr := n - nl
			if nl < b.minLeaf || nr < b.minLeaf {
				continue
			}
			lo, hi := b.x(order[i], f), b.x(order[i+1], f)
			if lo == hi {
				continue
			}
			rightSum := sum - leftSum
			rightSq := sumSq - leftSq
			cost := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if cost < bestCost-1e-12 {
				bestCost = cost
				bestFeature = f
				bestThreshold = lo + (hi-lo)/2
				if bestThreshold >= hi {
					bestThreshold = lo
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// Predict returns one prediction per row of X.
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := t.checkPredict(X); err != nil {
		return nil, err
	}
	rows, cols := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.PredictRow(row))
	}
	return out, nil
}

func (t *DecisionTreeRegressor) checkPredict(X mat.Matrix) error {
	if t.State == nil {
		return errors.NewNotFittedError("DecisionTreeRegressor", "Predict")
	}
	if err := t.State.RequireFitted("DecisionTreeRegressor", "Predict"); err != nil {
		return err
	}
	_, cols := X.Dims()
	return t.State.RequireFeatures("DecisionTreeRegressor.Predict", cols)
}

// PredictRow walks the fitted tree for one sample. The caller guarantees the
// tree is fitted and x has the training feature count.
func (t *DecisionTreeRegressor) PredictRow(x []float64) float64 {
	i := 0
	for {
		node := t.Nodes[i]
		if node.IsLeaf() {
			return node.Value
		}
		if x[node.Feature] <= node.Threshold {
			i = node.Left
		} else {
			i = node.Right
		}
	}
}

// Score returns the coefficient of determination on (X, y).
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	return metrics.PredictorScore(t, X, y)
}

// GetParams returns the hyperparameters.
func (t *DecisionTreeRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"max_depth":         t.MaxDepth,
		"min_samples_split": t.MinSamplesSplit,
		"min_samples_leaf":  t.MinSamplesLeaf,
		"max_features":      t.MaxFeatures,
		"random_state":      t.RandomState,
	}
}

// IsFitted reports whether Fit has completed.
func (t *DecisionTreeRegressor) IsFitted() bool {
	return t.State != nil && t.State.IsFitted()
}

// NFeatures is the feature count seen during Fit.
func (t *DecisionTreeRegressor) NFeatures() int {
	if t.State == nil {
		return 0
	}
	n, _ := t.State.GetDimensions()
	return n
}

// Depth returns the length of the longest root-to-leaf path.
func (t *DecisionTreeRegressor) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// NLeaves returns the number of leaves.
func (t *DecisionTreeRegressor) NLeaves() int {
	c := 0
	for _, n := range t.Nodes {
		if n.IsLeaf() {
			c++
		}
	}
	return c
}
