package domain

import "time"

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is a final state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Track is a single generated audio artifact.
type Track struct {
	Title    string `json:"title,omitempty"`
	URL      string `json:"url"`
	Duration string `json:"duration,omitempty"`
}

// Job encapsulates one paid generation request through its lifecycle.
type Job struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Style       string     `json:"style"`
	Status      JobStatus  `json:"status"`
	TxHash      string     `json:"txHash,omitempty"`
	Payer       string     `json:"payer,omitempty"`
	Tracks      []Track    `json:"tracks,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Stats summarizes queue depth and recent terminal outcomes.
type Stats struct {
	QueueLength     int `json:"queueLength"`
	HistoryLength   int `json:"historyLength"`
	RecentCompleted int `json:"recentCompleted"`
	RecentFailed    int `json:"recentFailed"`
}

const (
	// HistoryCapacity bounds the terminal-job history list. Inserting past the
	// cap evicts the oldest entry.
	HistoryCapacity = 100

	// StatsWindow is how many recent history entries feed the Stats counters.
	StatsWindow = 20
)
