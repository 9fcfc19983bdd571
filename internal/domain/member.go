package domain

import "time"

// Member is a project team member. The core consumes members read-only
// to decide who gets commit notification mail; authorization itself is
// the caller's concern.
type Member struct {
	ID            int64     `json:"id"`
	ProjectID     int64     `json:"project_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	NotifyCommits bool      `json:"notify_commits"`
	CreatedAt     time.Time `json:"created_at"`
}
