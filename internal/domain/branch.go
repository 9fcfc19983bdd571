package domain

import "time"

// MainBranchName is the protected branch every project starts with.
const MainBranchName = "main"

// Branch owns a mutable working snapshot and a log of immutable
// commits. Its name is unique within the project.
type Branch struct {
	ID           int64     `json:"id"`
	ProjectID    int64     `json:"project_id"`
	Name         string    `json:"name"`
	WorkingTerms Snapshot  `json:"working_terms"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Commit is an immutable snapshot of a branch's terms. AuthorID is nil
// when the author's account was removed after the commit was made.
type Commit struct {
	ID         int64     `json:"id"`
	BranchID   int64     `json:"branch_id"`
	Message    string    `json:"message"`
	AuthorID   *int64    `json:"author_id,omitempty"`
	AuthorName string    `json:"author_name,omitempty"`
	Terms      Snapshot  `json:"terms"`
	CreatedAt  time.Time `json:"created_at"`
}
