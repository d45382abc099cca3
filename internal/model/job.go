package model

import "time"

type JobStatus string

const (
	JobDraft     JobStatus = "Draft"
	JobPublished JobStatus = "Published"
	JobExpired   JobStatus = "Expired"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobDraft, JobPublished, JobExpired:
		return true
	}
	return false
}

type Job struct {
	ID                int64      `json:"id" db:"id"`
	Title             string     `json:"title" db:"title"`
	Description       string     `json:"description" db:"description"`
	ApplyInstructions string     `json:"apply_instructions" db:"apply_instructions"`
	ApplyLink         string     `json:"apply_link" db:"apply_link"`
	ApplyEmail        string     `json:"apply_email" db:"apply_email"`
	Salary            string     `json:"salary" db:"salary"`
	Currency          string     `json:"currency" db:"currency"`
	Location          string     `json:"location" db:"location"`
	Category          string     `json:"category" db:"category"`
	RemoteType        string     `json:"remote_type" db:"remote_type"`
	Hours             string     `json:"hours" db:"hours"`
	Status            JobStatus  `json:"status" db:"status"`
	PostedAt          time.Time  `json:"posted_at" db:"posted_at"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty" db:"expires_at"`
}

// JobStats summarizes the posting table for the stats page.
type JobStats struct {
	Total      int            `json:"total"`
	ByStatus   map[string]int `json:"by_status"`
	ByCategory map[string]int `json:"by_category"`
}
