package domain

import "time"

// Language is a supported language of a project. Code is unique within
// the project.
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Project is a named set of branches. CurrentBranch names the branch
// that term operations resolve against; exactly one branch with that
// name exists at all times (except transiently during a switch).
type Project struct {
	ID              int64      `json:"id"`
	Name            string     `json:"name"`
	Languages       []Language `json:"languages"`
	DefaultLanguage string     `json:"default_language"`
	CurrentBranch   string     `json:"current_branch"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasLanguage reports whether the project supports the given code.
func (p *Project) HasLanguage(code string) bool {
	for _, l := range p.Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}
