package forecast

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a single-predictor regression tree. Leaves carry
// the mean of their training targets, so predictions outside the observed
// year range continue flat at the boundary leaf's value. That extrapolation
// behavior is part of the forecast contract, not an artifact to smooth over.
type treeNode struct {
	threshold float64
	left      *treeNode
	right     *treeNode
	value     float64
	leaf      bool
}

func buildTree(xs, ys []float64, depth, maxDepth, minSamples int) *treeNode {
	if depth >= maxDepth || len(xs) < minSamples*2 || uniform(ys) {
		return &treeNode{leaf: true, value: mean(ys)}
	}

	threshold, ok := bestSplit(xs, ys, minSamples)
	if !ok {
		return &treeNode{leaf: true, value: mean(ys)}
	}

	var lx, ly, rx, ry []float64
	for i, x := range xs {
		if x <= threshold {
			lx = append(lx, x)
			ly = append(ly, ys[i])
		} else {
			rx = append(rx, x)
			ry = append(ry, ys[i])
		}
	}

	return &treeNode{
		threshold: threshold,
		left:      buildTree(lx, ly, depth+1, maxDepth, minSamples),
		right:     buildTree(rx, ry, depth+1, maxDepth, minSamples),
	}
}

// bestSplit scans candidate thresholds (midpoints between adjacent distinct
// x values) for the split minimizing total squared error.
func bestSplit(xs, ys []float64, minSamples int) (float64, bool) {
	order := make([]int, len(xs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return xs[order[a]] < xs[order[b]] })

	bestSSE := -1.0
	bestThreshold := 0.0
	for i := minSamples; i <= len(order)-minSamples; i++ {
		lo, hi := xs[order[i-1]], xs[order[i]]
		if lo == hi {
			continue
		}
		threshold := (lo + hi) / 2

		var ly, ry []float64
		for j, x := range xs {
			if x <= threshold {
				ly = append(ly, ys[j])
			} else {
				ry = append(ry, ys[j])
			}
		}
		sse := sumSquaredError(ly) + sumSquaredError(ry)
		if bestSSE < 0 || sse < bestSSE {
			bestSSE = sse
			bestThreshold = threshold
		}
	}

	if bestSSE < 0 {
		return 0, false
	}
	return bestThreshold, true
}

func sumSquaredError(ys []float64) float64 {
	m := mean(ys)
	sum := 0.0
	for _, y := range ys {
		d := y - m
		sum += d * d
	}
	return sum
}

func uniform(ys []float64) bool {
	for _, y := range ys {
		if y != ys[0] {
			return false
		}
	}
	return true
}

func (n *treeNode) predict(x float64) float64 {
	if n.leaf {
		return n.value
	}
	if x <= n.threshold {
		return n.left.predict(x)
	}
	return n.right.predict(x)
}

// randomForest is a bagged ensemble of regression trees over bootstrap
// resamples. Predictions average across trees.
type randomForest struct {
	trees []*treeNode
}

func fitRandomForest(xs, ys []float64, nTrees, maxDepth int, seed int64) *randomForest {
	rng := rand.New(rand.NewSource(seed))
	forest := &randomForest{trees: make([]*treeNode, 0, nTrees)}

	for t := 0; t < nTrees; t++ {
		bx := make([]float64, len(xs))
		by := make([]float64, len(ys))
		for i := range xs {
			j := rng.Intn(len(xs))
			bx[i] = xs[j]
			by[i] = ys[j]
		}
		forest.trees = append(forest.trees, buildTree(bx, by, 0, maxDepth, 1))
	}

	return forest
}

func (f *randomForest) predict(x float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// gradientBoosting fits shallow trees to the residuals of the running
// prediction, shrunk by the learning rate.
type gradientBoosting struct {
	base         float64
	learningRate float64
	trees        []*treeNode
}

func fitGradientBoosting(xs, ys []float64, nTrees, maxDepth int, learningRate float64) *gradientBoosting {
	model := &gradientBoosting{
		base:         mean(ys),
		learningRate: learningRate,
		trees:        make([]*treeNode, 0, nTrees),
	}

	current := make([]float64, len(ys))
	for i := range current {
		current[i] = model.base
	}

	residuals := make([]float64, len(ys))
	for t := 0; t < nTrees; t++ {
		for i := range ys {
			residuals[i] = ys[i] - current[i]
		}
		tree := buildTree(xs, residuals, 0, maxDepth, 1)
		model.trees = append(model.trees, tree)
		for i, x := range xs {
			current[i] += learningRate * tree.predict(x)
		}
	}

	return model
}

func (g *gradientBoosting) predict(x float64) float64 {
	result := g.base
	for _, t := range g.trees {
		result += g.learningRate * t.predict(x)
	}
	return result
}
