package models

import "time"

const (
	SourceManual  = "manual"
	SourcePDF     = "pdf"
	SourceYouTube = "youtube"
	SourceMixed   = "mixed"
)

type Note struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"-"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	SourceType string    `json:"source_type"`
	SourceInfo string    `json:"source_info"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NoteSourceInfo is stored as JSON in Note.SourceInfo.
type NoteSourceInfo struct {
	Files  []string `json:"files"`
	Links  []string `json:"links"`
	Prompt string   `json:"prompt"`
}
