package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/existflow/ironvault/internal/mindmap"
	"github.com/existflow/ironvault/internal/model"
)

// DefaultMindmapTitle is the title of mindmaps created without one
const DefaultMindmapTitle = "New Mindmap"

// ListMindmaps returns the mindmaps of a project, or all with an empty id
func (s *Store) ListMindmaps(ctx context.Context, projectID string) ([]model.Mindmap, error) {
	var out []model.Mindmap
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.Mindmap, 0)
		for _, m := range doc.Mindmaps {
			if projectID == "" || m.ProjectID == projectID {
				out = append(out, m)
			}
		}
	})
	return out, err
}

// GetMindmap returns the mindmap with id
func (s *Store) GetMindmap(ctx context.Context, id string) (model.Mindmap, error) {
	var (
		out   model.Mindmap
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if i := mindmapIndex(doc, id); i >= 0 {
			out, found = doc.Mindmaps[i], true
		}
	})
	if err != nil {
		return model.Mindmap{}, err
	}
	if !found {
		return model.Mindmap{}, fmt.Errorf("mindmap %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// CreateMindmap adds a mindmap; without a root it starts from a single
// "Central Topic" node.
func (s *Store) CreateMindmap(ctx context.Context, m model.Mindmap) (model.Mindmap, error) {
	if strings.TrimSpace(m.Title) == "" {
		m.Title = DefaultMindmapTitle
	}
	if m.Root.ID == "" {
		m.Root = mindmap.Reset()
	}
	m.ID = NewID(PrefixMindmap)
	m.CreatedAt = s.timestamp()

	err := s.mutate(ctx, func(doc *model.Document) error {
		if err := requireProject(doc, m.ProjectID); err != nil {
			return err
		}
		doc.Mindmaps = append(doc.Mindmaps, m)
		return nil
	})
	if err != nil {
		return model.Mindmap{}, err
	}
	return m, nil
}

// UpdateMindmap merges patch into the mindmap with id
func (s *Store) UpdateMindmap(ctx context.Context, id string, patch model.MindmapPatch) (model.Mindmap, error) {
	var out model.Mindmap
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := mindmapIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("mindmap %q: %w", id, ErrNotFound)
		}
		patch.Apply(&doc.Mindmaps[i])
		out = doc.Mindmaps[i]
		return nil
	})
	if err != nil {
		return model.Mindmap{}, err
	}
	return out, nil
}

// EditMindmap replaces the tree of a mindmap with edit(tree), e.g.
//
//	st.EditMindmap(ctx, id, func(root model.MindmapNode) model.MindmapNode {
//		return mindmap.Rename(root, nodeID, "Goals")
//	})
func (s *Store) EditMindmap(ctx context.Context, id string, edit func(model.MindmapNode) model.MindmapNode) (model.Mindmap, error) {
	var out model.Mindmap
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := mindmapIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("mindmap %q: %w", id, ErrNotFound)
		}
		doc.Mindmaps[i].Root = edit(doc.Mindmaps[i].Root)
		out = doc.Mindmaps[i]
		return nil
	})
	if err != nil {
		return model.Mindmap{}, err
	}
	return out, nil
}

// AddMindmapNode appends a new leaf labelled label under parentID. An
// empty parentID adds to the root.
func (s *Store) AddMindmapNode(ctx context.Context, id, parentID, label string) (model.MindmapNode, model.Mindmap, error) {
	child := mindmap.NewNode(label)
	m, err := s.editNodes(ctx, id, func(root model.MindmapNode) (model.MindmapNode, error) {
		if parentID == "" {
			parentID = root.ID
		}
		if _, ok := mindmap.Find(root, parentID); !ok {
			return root, fmt.Errorf("mindmap node %q: %w", parentID, ErrNotFound)
		}
		return mindmap.AddChild(root, parentID, child), nil
	})
	if err != nil {
		return model.MindmapNode{}, model.Mindmap{}, err
	}
	return child, m, nil
}

// RenameMindmapNode relabels one node
func (s *Store) RenameMindmapNode(ctx context.Context, id, nodeID, label string) (model.Mindmap, error) {
	return s.editNodes(ctx, id, func(root model.MindmapNode) (model.MindmapNode, error) {
		if _, ok := mindmap.Find(root, nodeID); !ok {
			return root, fmt.Errorf("mindmap node %q: %w", nodeID, ErrNotFound)
		}
		return mindmap.Rename(root, nodeID, label), nil
	})
}

// DeleteMindmapNode removes a node and its subtree. The root is refused.
func (s *Store) DeleteMindmapNode(ctx context.Context, id, nodeID string) (model.Mindmap, error) {
	return s.editNodes(ctx, id, func(root model.MindmapNode) (model.MindmapNode, error) {
		if root.ID == nodeID {
			return root, invalid(fmt.Errorf("the root node cannot be deleted"))
		}
		if _, ok := mindmap.Find(root, nodeID); !ok {
			return root, fmt.Errorf("mindmap node %q: %w", nodeID, ErrNotFound)
		}
		return mindmap.Delete(root, nodeID), nil
	})
}

// ResetMindmap replaces the tree with a fresh single root
func (s *Store) ResetMindmap(ctx context.Context, id string) (model.Mindmap, error) {
	return s.editNodes(ctx, id, func(model.MindmapNode) (model.MindmapNode, error) {
		return mindmap.Reset(), nil
	})
}

func (s *Store) editNodes(ctx context.Context, id string, edit func(model.MindmapNode) (model.MindmapNode, error)) (model.Mindmap, error) {
	var out model.Mindmap
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := mindmapIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("mindmap %q: %w", id, ErrNotFound)
		}
		root, err := edit(doc.Mindmaps[i].Root)
		if err != nil {
			return err
		}
		doc.Mindmaps[i].Root = root
		out = doc.Mindmaps[i]
		return nil
	})
	if err != nil {
		return model.Mindmap{}, err
	}
	return out, nil
}

// DeleteMindmap removes the mindmap with id
func (s *Store) DeleteMindmap(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		i := mindmapIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("mindmap %q: %w", id, ErrNotFound)
		}
		doc.Mindmaps = append(doc.Mindmaps[:i], doc.Mindmaps[i+1:]...)
		return nil
	})
}

func mindmapIndex(doc *model.Document, id string) int {
	for i := range doc.Mindmaps {
		if doc.Mindmaps[i].ID == id {
			return i
		}
	}
	return -1
}
