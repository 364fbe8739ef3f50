package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/existflow/ironvault/internal/model"
)

// ArtifactFilter narrows ListArtifacts
type ArtifactFilter struct {
	ProjectID string
	Type      model.ArtifactType
}

// ListArtifacts returns artifacts in creation order
func (s *Store) ListArtifacts(ctx context.Context, f ArtifactFilter) ([]model.Artifact, error) {
	var out []model.Artifact
	err := s.view(ctx, func(doc *model.Document) {
		out = make([]model.Artifact, 0)
		for _, a := range doc.Artifacts {
			if f.ProjectID != "" && a.ProjectID != f.ProjectID {
				continue
			}
			if f.Type != "" && a.Type != f.Type {
				continue
			}
			out = append(out, a)
		}
	})
	return out, err
}

// GetArtifact returns the artifact with id
func (s *Store) GetArtifact(ctx context.Context, id string) (model.Artifact, error) {
	var (
		out   model.Artifact
		found bool
	)
	err := s.view(ctx, func(doc *model.Document) {
		if i := artifactIndex(doc, id); i >= 0 {
			out, found = doc.Artifacts[i], true
		}
	})
	if err != nil {
		return model.Artifact{}, err
	}
	if !found {
		return model.Artifact{}, fmt.Errorf("artifact %q: %w", id, ErrNotFound)
	}
	return out, nil
}

// CreateArtifact records file metadata. The title is the file name and
// the type is inferred from its extension when not given.
func (s *Store) CreateArtifact(ctx context.Context, a model.Artifact) (model.Artifact, error) {
	if strings.TrimSpace(a.Title) == "" {
		return model.Artifact{}, invalid(errors.New("artifact title (file name) is required"))
	}
	if a.Size < 0 {
		return model.Artifact{}, invalid(fmt.Errorf("negative artifact size %d", a.Size))
	}
	if a.Type == "" {
		a.Type = model.ArtifactTypeFor(a.Title)
	}
	a.ID = NewID(PrefixArtifact)
	a.CreatedAt = s.timestamp()

	err := s.mutate(ctx, func(doc *model.Document) error {
		if err := requireProject(doc, a.ProjectID); err != nil {
			return err
		}
		doc.Artifacts = append(doc.Artifacts, a)
		return nil
	})
	if err != nil {
		return model.Artifact{}, err
	}
	return a, nil
}

// UpdateArtifact merges patch into the artifact with id
func (s *Store) UpdateArtifact(ctx context.Context, id string, patch model.ArtifactPatch) (model.Artifact, error) {
	var out model.Artifact
	err := s.mutate(ctx, func(doc *model.Document) error {
		i := artifactIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("artifact %q: %w", id, ErrNotFound)
		}
		patch.Apply(&doc.Artifacts[i])
		out = doc.Artifacts[i]
		return nil
	})
	if err != nil {
		return model.Artifact{}, err
	}
	return out, nil
}

// DeleteArtifact removes the artifact with id
func (s *Store) DeleteArtifact(ctx context.Context, id string) error {
	return s.mutate(ctx, func(doc *model.Document) error {
		i := artifactIndex(doc, id)
		if i < 0 {
			return fmt.Errorf("artifact %q: %w", id, ErrNotFound)
		}
		doc.Artifacts = append(doc.Artifacts[:i], doc.Artifacts[i+1:]...)
		return nil
	})
}

func artifactIndex(doc *model.Document, id string) int {
	for i := range doc.Artifacts {
		if doc.Artifacts[i].ID == id {
			return i
		}
	}
	return -1
}
