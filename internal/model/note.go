package model

// Note is free-text markdown attached to a project and/or a task
type Note struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"projectId,omitempty"`
	ArtifactID string    `json:"artifactId,omitempty"`
	TaskID     string    `json:"taskId,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Pinned     bool      `json:"pinned"`
	CreatedAt  Timestamp `json:"createdAt"`
}

// IsTaskNote reports whether the note hangs off a task. Task notes are
// hidden from the project-level note listing.
func (n *Note) IsTaskNote() bool {
	return n.TaskID != ""
}

// NotePatch is a partial update; nil fields are left unchanged
type NotePatch struct {
	Title   *string `json:"title,omitempty"`
	Content *string `json:"content,omitempty"`
	Pinned  *bool   `json:"pinned,omitempty"`
}

// Apply merges the patch into dst
func (p NotePatch) Apply(dst *Note) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Content != nil {
		dst.Content = *p.Content
	}
	if p.Pinned != nil {
		dst.Pinned = *p.Pinned
	}
}
