package optimization

import "sort"

// sample is one training row reduced to the tree's single feature and binary label.
type sample struct {
	x   float64
	pos bool
}

// treeNode covers samples[lo:hi] of a slice sorted by x. With one feature every node
// is a contiguous run of that slice.
type treeNode struct {
	lo, hi    int
	positives int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (n *treeNode) isLeaf() bool { return n.left == nil }
func (n *treeNode) size() int    { return n.hi - n.lo }

type treeParams struct {
	maxDepth       int
	minSampleSplit int
	minSampleLeaf  int
}

// splitTree is a depth-bounded binary classification tree on one scalar feature.
type splitTree struct {
	samples []sample
	root    *treeNode
	params  treeParams
	splits  int
	depth   int
}

func fitTree(samples []sample, p treeParams) *splitTree {
	s := make([]sample, len(samples))
	copy(s, samples)
	sort.SliceStable(s, func(i, j int) bool { return s[i].x < s[j].x })

	t := &splitTree{samples: s, params: p}
	t.root = t.grow(0, len(s), 0)
	return t
}

func (t *splitTree) grow(lo, hi, depth int) *treeNode {
	n := &treeNode{lo: lo, hi: hi}
	for i := lo; i < hi; i++ {
		if t.samples[i].pos {
			n.positives++
		}
	}
	if depth > t.depth {
		t.depth = depth
	}
	if depth >= t.params.maxDepth || n.size() < t.params.minSampleSplit {
		return n
	}
	if n.positives == 0 || n.positives == n.size() {
		return n
	}

	cut, gain := t.bestSplit(n)
	if cut < 0 || gain <= 1e-12 {
		return n
	}
	n.threshold = (t.samples[cut-1].x + t.samples[cut].x) / 2
	n.left = t.grow(lo, cut, depth+1)
	n.right = t.grow(cut, hi, depth+1)
	t.splits++
	return n
}

// bestSplit scans cut points between distinct values and returns the one with the
// largest Gini impurity decrease, or -1 when no admissible cut exists.
func (t *splitTree) bestSplit(n *treeNode) (int, float64) {
	total := n.size()
	parent := gini(n.positives, total)
	best, bestGain := -1, 0.0

	leftPos := 0
	for i := n.lo + 1; i < n.hi; i++ {
		if t.samples[i-1].pos {
			leftPos++
		}
		if t.samples[i].x == t.samples[i-1].x {
			continue
		}
		nl, nr := i-n.lo, n.hi-i
		if nl < t.params.minSampleLeaf || nr < t.params.minSampleLeaf {
			continue
		}
		rightPos := n.positives - leftPos
		child := (float64(nl)*gini(leftPos, nl) + float64(nr)*gini(rightPos, nr)) / float64(total)
		if g := parent - child; g > bestGain {
			best, bestGain = i, g
		}
	}
	return best, bestGain
}

// leaves returns the leaf nodes left to right.
func (t *splitTree) leaves() []*treeNode {
	var out []*treeNode
	var walk func(n *treeNode)
	walk = func(n *treeNode) {
		if n == nil {
			return
		}
		if n.isLeaf() {
			out = append(out, n)
			return
		}
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
	return out
}

// span returns the lowest and highest feature value inside a node.
func (t *splitTree) span(n *treeNode) (float64, float64) {
	return t.samples[n.lo].x, t.samples[n.hi-1].x
}

func gini(pos, n int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
