package engine

import (
	"golang.org/x/exp/rand"
)

// node is a hand-built game tree used to drive the searcher without chess rules.
type node struct {
	score    Score // white-positive static value
	children []*node
	terminal bool
}

// treePosition is a Position over a node tree. Moves are child indices.
type treePosition struct {
	root     *node
	rootSide Color
	path     []*node
	applied  int
	undone   int
	maxPly   int
}

func newTreePosition(root *node, side Color) *treePosition {
	return &treePosition{root: root, rootSide: side}
}

func (t *treePosition) current() *node {
	if len(t.path) == 0 {
		return t.root
	}
	return t.path[len(t.path)-1]
}

func (t *treePosition) LegalMoves() []int {
	n := t.current()
	if n.terminal {
		return nil
	}
	moves := make([]int, len(n.children))
	for i := range moves {
		moves[i] = i
	}
	return moves
}

func (t *treePosition) Apply(m int) {
	n := t.current()
	if m < 0 || m >= len(n.children) {
		panic("treePosition.Apply: illegal move")
	}
	t.path = append(t.path, n.children[m])
	t.applied++
	t.maxPly = max(t.maxPly, len(t.path))
}

func (t *treePosition) Undo() {
	if len(t.path) == 0 {
		panic("treePosition.Undo: nothing to undo")
	}
	t.path = t.path[:len(t.path)-1]
	t.undone++
}

func (t *treePosition) IsGameOver() bool {
	n := t.current()
	return n.terminal || len(n.children) == 0
}

// Board encodes nothing; tests evaluate through treeEvaluator.
func (t *treePosition) Board() Board { return Board{} }

func (t *treePosition) SideToMove() Color {
	if len(t.path)%2 == 0 {
		return t.rootSide
	}
	return t.rootSide.Other()
}

// treeEvaluator reads the static value of the node the position is on.
func treeEvaluator(t *treePosition) Evaluator {
	return EvaluatorFunc(func(Board) Score { return t.current().score })
}

func leaf(score Score) *node { return &node{score: score} }

func branch(score Score, children ...*node) *node {
	return &node{score: score, children: children}
}

// randomTree builds a tree of the given height with 1..maxWidth children per node
// and scores in [-spread, spread].
func randomTree(rng *rand.Rand, height int, maxWidth int, spread int) *node {
	n := &node{score: Score(rng.Intn(2*spread+1) - spread)}
	if height == 0 {
		return n
	}
	if rng.Intn(10) == 0 {
		n.terminal = true
		return n
	}
	width := 1 + rng.Intn(maxWidth)
	for i := 0; i < width; i++ {
		n.children = append(n.children, randomTree(rng, height-1, maxWidth, spread))
	}
	return n
}

// negamaxReference is a full-width negamax with no pruning. It returns the
// value of n for the side to move there, orienting leaves to that side.
func negamaxReference(n *node, depth int, side Color) Score {
	if depth == 0 || n.terminal || len(n.children) == 0 {
		return Orient(n.score, side)
	}
	best := -infinity
	for _, c := range n.children {
		best = max(best, -negamaxReference(c, depth-1, side.Other()))
	}
	return best
}

// bestRootReference picks the root child the way the root driver does, using
// the unpruned negamax values.
func bestRootReference(root *node, depth int, side Color) (int, Score, bool) {
	bestIdx, bestScore, found := 0, rootFloor, false
	for i, c := range root.children {
		v := -negamaxReference(c, depth-1, side.Other())
		if !found || v > bestScore {
			bestIdx, bestScore, found = i, v, true
		}
	}
	return bestIdx, bestScore, found
}

// legacyReference mirrors the arcade's minimax without pruning: leaves return
// the negated white-positive value and the root reply minimizes.
func legacyReference(n *node, depth int, maximizing bool) Score {
	if depth == 0 || n.terminal || len(n.children) == 0 {
		return -n.score
	}
	if maximizing {
		best := -infinity
		for _, c := range n.children {
			best = max(best, legacyReference(c, depth-1, false))
		}
		return best
	}
	best := infinity
	for _, c := range n.children {
		best = min(best, legacyReference(c, depth-1, true))
	}
	return best
}
