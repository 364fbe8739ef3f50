package model

// MindmapNode is one idea in a mindmap tree. Children are ordered and
// each node is owned by exactly one parent.
type MindmapNode struct {
	ID       string        `json:"id"`
	Label    string        `json:"label"`
	Children []MindmapNode `json:"children"`
}

// Mindmap is a labelled tree of ideas owned by a project
type Mindmap struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	Title     string      `json:"title"`
	Root      MindmapNode `json:"root"`
	CreatedAt Timestamp   `json:"createdAt"`
}

// MindmapPatch is a partial update; nil fields are left unchanged
type MindmapPatch struct {
	Title *string      `json:"title,omitempty"`
	Root  *MindmapNode `json:"root,omitempty"`
}

// Apply merges the patch into dst
func (p MindmapPatch) Apply(dst *Mindmap) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.Root != nil {
		dst.Root = *p.Root
	}
}
