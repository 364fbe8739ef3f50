package model

import (
	"path/filepath"
	"strings"
)

// ArtifactType classifies an uploaded file
type ArtifactType string

const (
	ArtifactPDF      ArtifactType = "pdf"
	ArtifactMarkdown ArtifactType = "markdown"
	ArtifactImage    ArtifactType = "image"
	ArtifactZip      ArtifactType = "zip"
	ArtifactGeneric  ArtifactType = "generic"
)

var artifactExtensions = map[string]ArtifactType{
	".pdf":      ArtifactPDF,
	".md":       ArtifactMarkdown,
	".markdown": ArtifactMarkdown,
	".jpg":      ArtifactImage,
	".jpeg":     ArtifactImage,
	".png":      ArtifactImage,
	".gif":      ArtifactImage,
	".svg":      ArtifactImage,
	".webp":     ArtifactImage,
	".zip":      ArtifactZip,
}

// ArtifactTypeFor infers the artifact type from a file name's extension
func ArtifactTypeFor(name string) ArtifactType {
	if t, ok := artifactExtensions[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return ArtifactGeneric
}

// Artifact is the metadata of an uploaded file; content is not modelled
type Artifact struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId"`
	Title     string       `json:"title"`
	Type      ArtifactType `json:"type"`
	Size      int64        `json:"size"`
	URL       string       `json:"url,omitempty"`
	CreatedAt Timestamp    `json:"createdAt"`
}

// ArtifactPatch is a partial update; nil fields are left unchanged
type ArtifactPatch struct {
	Title *string `json:"title,omitempty"`
	URL   *string `json:"url,omitempty"`
}

// Apply merges the patch into dst
func (p ArtifactPatch) Apply(dst *Artifact) {
	if p.Title != nil {
		dst.Title = *p.Title
	}
	if p.URL != nil {
		dst.URL = *p.URL
	}
}
