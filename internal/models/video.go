package models

import (
	"time"
)

// Video is one catalog entry. Filename is the catalog key and names a file in
// the media directory.
type Video struct {
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	Views      int64     `json:"views"`
	Likes      int64     `json:"likes"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// NewVideo returns a fresh record with zeroed counters.
func NewVideo(title, filename string, uploadedAt time.Time) Video {
	return Video{
		Title:      title,
		Filename:   filename,
		UploadedAt: uploadedAt,
	}
}
