// Package layout implements the frontend's per-tab binary split tree: a
// tagged union of pane leaves and direction/ratio split nodes, the
// floor/-1 divider-rounding rule, and focus-order traversal.
//
// No teacher file implements multi-pane splits (the teacher wraps exactly
// one PTY per process); this package is built directly from spec.md
// §4.6's algorithm, structured as the tagged-union node spec.md §3
// describes ("Layout node").
package layout

import (
	"fmt"
	"sort"
)

// Direction is a split's orientation.
type Direction int

const (
	Horizontal Direction = iota // children side by side, split runs vertically
	Vertical                    // children stacked, split runs horizontally
)

// Rect is a leaf's screen rectangle, in cells.
type Rect struct {
	X, Y, W, H int
}

// Node is a tagged union: either a pane leaf or a split with two children.
// Exactly one of Pane/Split-fields is meaningful, selected by IsLeaf.
type Node struct {
	IsLeaf bool

	// Leaf fields.
	PaneID string
	Rect   Rect

	// Split fields.
	Direction Direction
	Ratio     float64
	First     *Node
	Second    *Node
}

func newLeaf(paneID string) *Node {
	return &Node{IsLeaf: true, PaneID: paneID}
}

// Tab owns one tab's tree and focused-pane id.
type Tab struct {
	Name    string
	Root    *Node
	Focused string
}

// NewTab creates an empty tab (no root until CreateFirst).
func NewTab(name string) *Tab {
	return &Tab{Name: name}
}

// CreateFirst allocates the tab's first pane leaf, if the tree is empty.
func (t *Tab) CreateFirst(paneID string) {
	if t.Root != nil {
		return
	}
	t.Root = newLeaf(paneID)
	t.Focused = paneID
}

// SplitFocused replaces the focused leaf with a split node whose First is
// the old leaf and whose Second is a new leaf for newPaneID. Focus moves to
// the new pane, tmux-style. Returns false if no leaf is focused (empty
// tree, or focused id stale).
func (t *Tab) SplitFocused(direction Direction, newPaneID string) bool {
	leaf := findLeaf(t.Root, t.Focused)
	if leaf == nil {
		return false
	}
	old := *leaf // copy the old leaf's fields into a new node value
	*leaf = Node{
		IsLeaf:    false,
		Direction: direction,
		Ratio:     0.5,
		First:     &old,
		Second:    newLeaf(newPaneID),
	}
	t.Focused = newPaneID
	return true
}

// Recalculate assigns every leaf a Rect top-down from the tab's root
// bounds, per spec.md §4.6's floor/-1 divider rounding rule.
func (t *Tab) Recalculate(bounds Rect) {
	if t.Root == nil {
		return
	}
	recalc(t.Root, bounds)
}

func recalc(n *Node, bounds Rect) {
	if n.IsLeaf {
		n.Rect = bounds
		return
	}

	var firstBounds, secondBounds Rect
	if n.Direction == Horizontal {
		firstW := int(float64(bounds.W)*n.Ratio) - 1
		if firstW < 0 {
			firstW = 0
		}
		secondW := bounds.W - firstW - 1
		if secondW < 0 {
			secondW = 0
		}
		firstBounds = Rect{X: bounds.X, Y: bounds.Y, W: firstW, H: bounds.H}
		secondBounds = Rect{X: bounds.X + firstW + 1, Y: bounds.Y, W: secondW, H: bounds.H}
	} else {
		firstH := int(float64(bounds.H)*n.Ratio) - 1
		if firstH < 0 {
			firstH = 0
		}
		secondH := bounds.H - firstH - 1
		if secondH < 0 {
			secondH = 0
		}
		firstBounds = Rect{X: bounds.X, Y: bounds.Y, W: bounds.W, H: firstH}
		secondBounds = Rect{X: bounds.X, Y: bounds.Y + firstH + 1, W: bounds.W, H: secondH}
	}

	recalc(n.First, firstBounds)
	recalc(n.Second, secondBounds)
}

// Resize updates the tab's bounds and recalculates every leaf's rectangle.
func (t *Tab) Resize(bounds Rect) {
	t.Recalculate(bounds)
}

// LeafPaneIDs returns every leaf pane id in ascending string order, the
// traversal order FocusNext/FocusPrev walk.
func (t *Tab) LeafPaneIDs() []string {
	var ids []string
	collectLeaves(t.Root, &ids)
	sort.Strings(ids)
	return ids
}

// LeafRect returns the rectangle Recalculate assigned to the leaf backing
// paneID, and whether that leaf exists.
func (t *Tab) LeafRect(paneID string) (Rect, bool) {
	leaf := findLeaf(t.Root, paneID)
	if leaf == nil {
		return Rect{}, false
	}
	return leaf.Rect, true
}

func collectLeaves(n *Node, out *[]string) {
	if n == nil {
		return
	}
	if n.IsLeaf {
		*out = append(*out, n.PaneID)
		return
	}
	collectLeaves(n.First, out)
	collectLeaves(n.Second, out)
}

// FocusNext moves focus to the next leaf in ascending id order, wrapping
// around.
func (t *Tab) FocusNext() {
	t.focusRelative(1)
}

// FocusPrev moves focus to the previous leaf in ascending id order,
// wrapping around.
func (t *Tab) FocusPrev() {
	t.focusRelative(-1)
}

func (t *Tab) focusRelative(delta int) {
	ids := t.LeafPaneIDs()
	if len(ids) == 0 {
		return
	}
	idx := indexOf(ids, t.Focused)
	if idx == -1 {
		t.Focused = ids[0]
		return
	}
	n := len(ids)
	idx = ((idx+delta)%n + n) % n
	t.Focused = ids[idx]
}

// CloseFocused removes the focused leaf from the tree by collapsing its
// parent split into the sibling subtree. Refuses if only one leaf remains.
// Returns the closed pane's id and true on success.
func (t *Tab) CloseFocused() (string, bool) {
	ids := t.LeafPaneIDs()
	if len(ids) <= 1 {
		return "", false
	}
	closed := t.Focused

	t.FocusNext()
	newFocus := t.Focused

	t.Root = removeLeaf(t.Root, closed)
	t.Focused = newFocus
	return closed, true
}

// removeLeaf returns a new subtree with the leaf matching paneID removed,
// collapsing its parent split into the surviving sibling.
func removeLeaf(n *Node, paneID string) *Node {
	if n == nil {
		return nil
	}
	if n.IsLeaf {
		if n.PaneID == paneID {
			return nil // caller (split parent) replaces itself with the sibling
		}
		return n
	}
	if n.First.IsLeaf && n.First.PaneID == paneID {
		return n.Second
	}
	if n.Second.IsLeaf && n.Second.PaneID == paneID {
		return n.First
	}
	n.First = removeLeaf(n.First, paneID)
	n.Second = removeLeaf(n.Second, paneID)
	return n
}

func findLeaf(n *Node, paneID string) *Node {
	if n == nil {
		return nil
	}
	if n.IsLeaf {
		if n.PaneID == paneID {
			return n
		}
		return nil
	}
	if leaf := findLeaf(n.First, paneID); leaf != nil {
		return leaf
	}
	return findLeaf(n.Second, paneID)
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// String renders a compact description of the tree, for debugging.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	if n.IsLeaf {
		return fmt.Sprintf("pane(%s)", n.PaneID)
	}
	return fmt.Sprintf("split(%v, %.2f, %v, %v)", n.Direction, n.Ratio, n.First, n.Second)
}
