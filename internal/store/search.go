package store

import (
	"context"
	"strings"

	"github.com/existflow/ironvault/internal/model"
)

// SearchResult holds the matches per collection
type SearchResult struct {
	Projects []model.Project `json:"projects"`
	Tasks    []model.Task    `json:"tasks"`
	Notes    []model.Note    `json:"notes"`
}

// Total counts all matches
func (r SearchResult) Total() int {
	return len(r.Projects) + len(r.Tasks) + len(r.Notes)
}

// Search matches query case-insensitively against project, task and note
// titles. Archived projects and everything in them are skipped. An empty
// query matches every title.
func (s *Store) Search(ctx context.Context, query string) (SearchResult, error) {
	q := strings.ToLower(query)
	res := SearchResult{Projects: []model.Project{}, Tasks: []model.Task{}, Notes: []model.Note{}}

	err := s.view(ctx, func(doc *model.Document) {
		archived := make(map[string]bool)
		for _, p := range doc.Projects {
			if p.Archived {
				archived[p.ID] = true
				continue
			}
			if strings.Contains(strings.ToLower(p.Title), q) {
				res.Projects = append(res.Projects, p)
			}
		}
		for _, t := range doc.Tasks {
			if !archived[t.ProjectID] && strings.Contains(strings.ToLower(t.Title), q) {
				res.Tasks = append(res.Tasks, t)
			}
		}
		for _, n := range doc.Notes {
			if !archived[n.ProjectID] && strings.Contains(strings.ToLower(n.Title), q) {
				res.Notes = append(res.Notes, n)
			}
		}
	})
	return res, err
}
