package model

import "encoding/json"

// SchemaVersion is the layout version written by this build
const SchemaVersion = 1

// Document is the whole persisted vault. It is always read and written
// as one unit.
type Document struct {
	SchemaVersion int            `json:"schemaVersion,omitempty"`
	// Skipped counts records left out by DecodeDocument. Never persisted.
	Skipped       int            `json:"-"`
	Projects      []Project      `json:"projects"`
	Tasks         []Task         `json:"tasks"`
	Notes         []Note         `json:"notes"`
	Artifacts     []Artifact     `json:"artifacts"`
	CalendarItems []CalendarItem `json:"calendarItems"`
	Mindmaps      []Mindmap      `json:"mindmaps"`
	ActivityLogs  []ActivityLog  `json:"activityLogs"`
	Decks         []Deck         `json:"decks"`
}

// NewDocument returns the seed document with every collection empty
func NewDocument() *Document {
	d := &Document{SchemaVersion: SchemaVersion}
	d.Normalize()
	return d
}

// Normalize replaces collections missing from older documents with empty
// slices and fills nil tags and children so callers never see nil.
func (d *Document) Normalize() {
	if d.Projects == nil {
		d.Projects = []Project{}
	}
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Notes == nil {
		d.Notes = []Note{}
	}
	if d.Artifacts == nil {
		d.Artifacts = []Artifact{}
	}
	if d.CalendarItems == nil {
		d.CalendarItems = []CalendarItem{}
	}
	if d.Mindmaps == nil {
		d.Mindmaps = []Mindmap{}
	}
	if d.ActivityLogs == nil {
		d.ActivityLogs = []ActivityLog{}
	}
	if d.Decks == nil {
		d.Decks = []Deck{}
	}
	for i := range d.Projects {
		p := &d.Projects[i]
		if p.Tags == nil {
			p.Tags = []string{}
		}
		p.StartDate = optionalDate(p.StartDate)
		p.TargetDate = optionalDate(p.TargetDate)
	}
	for i := range d.Tasks {
		d.Tasks[i].DueDate = optionalDate(d.Tasks[i].DueDate)
	}
	for i := range d.Mindmaps {
		normalizeNode(&d.Mindmaps[i].Root)
	}
	for i := range d.Decks {
		if d.Decks[i].Slides == nil {
			d.Decks[i].Slides = []Slide{}
		}
	}
	if d.SchemaVersion == 0 {
		d.SchemaVersion = SchemaVersion
	}
}

func normalizeNode(n *MindmapNode) {
	if n.Children == nil {
		n.Children = []MindmapNode{}
	}
	for i := range n.Children {
		normalizeNode(&n.Children[i])
	}
}

// DecodeDocument parses a persisted vault. When the document as a whole
// does not decode, every collection is decoded record by record and the
// records that fail are counted in Skipped instead of failing the vault.
// Only data that is not a JSON object is an error.
func DecodeDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err == nil {
		doc.Normalize()
		return &doc, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	doc = Document{}
	if raw, ok := top["schemaVersion"]; ok {
		_ = json.Unmarshal(raw, &doc.SchemaVersion)
	}
	doc.Projects = decodeRecords[Project](top["projects"], &doc.Skipped)
	doc.Tasks = decodeRecords[Task](top["tasks"], &doc.Skipped)
	doc.Notes = decodeRecords[Note](top["notes"], &doc.Skipped)
	doc.Artifacts = decodeRecords[Artifact](top["artifacts"], &doc.Skipped)
	doc.CalendarItems = decodeRecords[CalendarItem](top["calendarItems"], &doc.Skipped)
	doc.Mindmaps = decodeRecords[Mindmap](top["mindmaps"], &doc.Skipped)
	doc.ActivityLogs = decodeRecords[ActivityLog](top["activityLogs"], &doc.Skipped)
	doc.Decks = decodeRecords[Deck](top["decks"], &doc.Skipped)
	doc.Normalize()
	return &doc, nil
}

func decodeRecords[T any](raw json.RawMessage, skipped *int) []T {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		*skipped++
		return nil
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			*skipped++
			continue
		}
		out = append(out, v)
	}
	return out
}
