package domain

import "errors"

// Taxonomy errors. All are terminal for the operation that raised them;
// callers must not retry automatically. Call sites wrap these with
// context, so match with errors.Is.
var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrBranchNotFound       = errors.New("branch not found")
	ErrSourceBranchNotFound = errors.New("source branch not found")
	ErrCommitNotFound       = errors.New("commit not found")
	ErrBranchNameExists     = errors.New("branch name already exists")
	ErrCannotDeleteMain     = errors.New("the main branch cannot be deleted")
	ErrCannotRollback       = errors.New("a branch's initial commit cannot be rolled back")
)

// ErrInvalidInput marks argument validation failures. Wrap it so the
// transport layer can map the whole class with errors.Is.
var ErrInvalidInput = errors.New("invalid input")
