package domain

import "time"

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal is true once a job has completed or failed
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// generation request as accepted from callers
type SubmitRequest struct {
	LocationIDs  []string       `json:"location_ids" yaml:"location_ids"`
	AdVariants   []AdVariant    `json:"ad_variants" yaml:"ad_variants"`
	Campaign     CampaignConfig `json:"campaign" yaml:"campaign"`
	FileNameHint string         `json:"file_name,omitempty" yaml:"file_name"`
}

// returned synchronously by Submit
type JobHandle struct {
	ID           string    `json:"id"`
	Status       JobStatus `json:"status"`
	TotalRecords int       `json:"total_records"`
	CreatedAt    time.Time `json:"created_at"`
}

// point-in-time view of a job
type JobSnapshot struct {
	ID               string     `json:"id"`
	Status           JobStatus  `json:"status"`
	LocationIDs      []string   `json:"location_ids"`
	AdVariantIDs     []string   `json:"ad_variant_ids"`
	TotalRecords     int        `json:"total_records"`
	ProcessedRecords int        `json:"processed_records"`
	FileName         string     `json:"file_name,omitempty"`
	Error            string     `json:"error,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

// Progress returns processed/total in [0,1].
func (s JobSnapshot) Progress() float64 {
	if s.TotalRecords == 0 {
		return 0
	}
	return float64(s.ProcessedRecords) / float64(s.TotalRecords)
}

// Artifact is the cached output of a completed job.
type Artifact struct {
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Checksum    string    `json:"checksum"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"created_at"`
}
