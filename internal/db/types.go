package db

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Run represents one tailoring run record.
type Run struct {
	ID             uuid.UUID  `json:"id"`
	Status         string     `json:"status"`
	JobSource      string     `json:"job_source"`
	ResumeFilename string     `json:"resume_filename"`
	DraftTexPath   string     `json:"draft_tex_path,omitempty"`
	FinalTexPath   string     `json:"final_tex_path,omitempty"`
	PDFPath        string     `json:"pdf_path,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// ArtifactPaths holds the file paths produced by a successful run.
type ArtifactPaths struct {
	DraftTex string
	FinalTex string
	PDF      string
}
