// Package mindmap edits mindmap trees. Every function is pure: the input
// tree is never modified, unaffected subtrees are shared with the result,
// and every ancestor of an edited node is rebuilt.
package mindmap

import (
	"github.com/google/uuid"

	"github.com/existflow/ironvault/internal/model"
)

// DefaultRootLabel is the label of fresh roots
const DefaultRootLabel = "Central Topic"

// DefaultChildLabel is the label of nodes added without one
const DefaultChildLabel = "New Node"

// NewID mints a node id
func NewID() string {
	return "node-" + uuid.NewString()
}

// NewNode returns a leaf with a fresh id
func NewNode(label string) model.MindmapNode {
	if label == "" {
		label = DefaultChildLabel
	}
	return model.MindmapNode{ID: NewID(), Label: label, Children: []model.MindmapNode{}}
}

// Reset produces a fresh single-node tree, used to clear a board while
// keeping the mindmap itself.
func Reset() model.MindmapNode {
	return NewNode(DefaultRootLabel)
}

// Rename replaces the label of the node with nodeID
func Rename(root model.MindmapNode, nodeID, label string) model.MindmapNode {
	out, _ := rewrite(root, func(n model.MindmapNode) (model.MindmapNode, bool) {
		if n.ID != nodeID {
			return n, false
		}
		n.Label = label
		return n, true
	})
	return out
}

// AddChild appends child to the children of the node with parentID.
// The child is added as a leaf.
func AddChild(root model.MindmapNode, parentID string, child model.MindmapNode) model.MindmapNode {
	child.Children = []model.MindmapNode{}
	out, _ := rewrite(root, func(n model.MindmapNode) (model.MindmapNode, bool) {
		if n.ID != parentID {
			return n, false
		}
		children := make([]model.MindmapNode, 0, len(n.Children)+1)
		children = append(children, n.Children...)
		n.Children = append(children, child)
		return n, true
	})
	return out
}

// Delete removes the node with nodeID, and its subtree, from its parent.
// The root cannot be deleted.
func Delete(root model.MindmapNode, nodeID string) model.MindmapNode {
	if root.ID == nodeID {
		return root
	}
	out, _ := rewrite(root, func(n model.MindmapNode) (model.MindmapNode, bool) {
		idx := -1
		for i, c := range n.Children {
			if c.ID == nodeID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return n, false
		}
		children := make([]model.MindmapNode, 0, len(n.Children)-1)
		children = append(children, n.Children[:idx]...)
		n.Children = append(children, n.Children[idx+1:]...)
		return n, true
	})
	return out
}

// rewrite walks the tree depth-first in pre-order and applies edit to the
// first node it accepts. Only the path from the root to that node is
// copied.
func rewrite(n model.MindmapNode, edit func(model.MindmapNode) (model.MindmapNode, bool)) (model.MindmapNode, bool) {
	if edited, ok := edit(n); ok {
		return edited, true
	}
	for i, c := range n.Children {
		next, ok := rewrite(c, edit)
		if !ok {
			continue
		}
		children := make([]model.MindmapNode, len(n.Children))
		copy(children, n.Children)
		children[i] = next
		n.Children = children
		return n, true
	}
	return n, false
}

// Find returns the node with id
func Find(root model.MindmapNode, id string) (model.MindmapNode, bool) {
	if root.ID == id {
		return root, true
	}
	for _, c := range root.Children {
		if n, ok := Find(c, id); ok {
			return n, true
		}
	}
	return model.MindmapNode{}, false
}

// IDs lists node ids in pre-order
func IDs(root model.MindmapNode) []string {
	ids := []string{root.ID}
	for _, c := range root.Children {
		ids = append(ids, IDs(c)...)
	}
	return ids
}

// Size counts the nodes of the tree
func Size(root model.MindmapNode) int {
	n := 1
	for _, c := range root.Children {
		n += Size(c)
	}
	return n
}

// Depth returns the depth of the node with id, 0 for the root, or -1
func Depth(root model.MindmapNode, id string) int {
	if root.ID == id {
		return 0
	}
	for _, c := range root.Children {
		if d := Depth(c, id); d >= 0 {
			return d + 1
		}
	}
	return -1
}

// Clone deep-copies a tree so the copy shares no slices with root
func Clone(root model.MindmapNode) model.MindmapNode {
	out := model.MindmapNode{ID: root.ID, Label: root.Label, Children: make([]model.MindmapNode, len(root.Children))}
	for i, c := range root.Children {
		out.Children[i] = Clone(c)
	}
	return out
}
