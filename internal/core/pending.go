package core

import (
	"github.com/jo-hoe/leafcollector/internal/crop"
)

const (
	SourceFile   = "file"
	SourceCamera = "camera"
)

// PendingUpload is the image waiting to be submitted.
// Original holds the image as selected; Data is what will be sent (cropped when Crop is set).
type PendingUpload struct {
	ID          string
	Source      string
	Filename    string
	ContentType string
	Original    []byte
	Data        []byte
	Category    string
	Crop        *crop.Selection
}

// HasImage reports whether image data has been selected or captured
func (p *PendingUpload) HasImage() bool {
	return p != nil && len(p.Data) > 0
}

// PendingSummary describes the pending upload without its bytes
type PendingSummary struct {
	ID          string
	Source      string
	Filename    string
	ContentType string
	SizeBytes   int
	Cropped     bool
}

func (p *PendingUpload) summary() *PendingSummary {
	if !p.HasImage() {
		return nil
	}
	return &PendingSummary{
		ID:          p.ID,
		Source:      p.Source,
		Filename:    p.Filename,
		ContentType: p.ContentType,
		SizeBytes:   len(p.Data),
		Cropped:     p.Crop != nil,
	}
}
