package model

// ActivityLog is kept in the persisted layout for compatibility.
// Nothing writes it yet; it is dropped with its project.
type ActivityLog struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Action    string    `json:"action"`
	Timestamp Timestamp `json:"timestamp"`
}
