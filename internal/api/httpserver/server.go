// Package httpserver exposes the project, branch, term, commit and
// merge operations as a JSON REST API. The actor identifier arrives in
// the X-Actor header; establishing identity is not this service's job.
package httpserver

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
	"github.com/Baldarello/localization-pro-sub001/internal/usecase/projects"
	"github.com/Baldarello/localization-pro-sub001/internal/usecase/transfer"
	"github.com/Baldarello/localization-pro-sub001/internal/usecase/versioning"
)

type Deps struct {
	Versioning *versioning.Service
	Projects   *projects.Service
	Transfer   *transfer.Service
	Log        *zap.Logger
}

type Server struct{ d Deps }

func New(d Deps) *Server {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	return &Server{d: d}
}

// Handler builds the routed handler with access logging and JSON
// content type applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter().StrictSlash(true)

	r.HandleFunc("/projects", s.createProject).Methods("POST")
	r.HandleFunc("/projects", s.listProjects).Methods("GET")
	r.HandleFunc("/projects/{id}", s.getProject).Methods("GET")
	r.HandleFunc("/projects/{id}", s.renameProject).Methods("PATCH")
	r.HandleFunc("/projects/{id}", s.deleteProject).Methods("DELETE")
	r.HandleFunc("/projects/{id}/languages", s.updateLanguages).Methods("PUT")

	r.HandleFunc("/projects/{id}/members", s.addMember).Methods("POST")
	r.HandleFunc("/projects/{id}/members", s.listMembers).Methods("GET")
	r.HandleFunc("/projects/{id}/members/{memberId}", s.removeMember).Methods("DELETE")

	r.HandleFunc("/projects/{id}/branches", s.createBranch).Methods("POST")
	r.HandleFunc("/projects/{id}/branches", s.listBranches).Methods("GET")
	r.HandleFunc("/projects/{id}/branches/{name}", s.deleteBranch).Methods("DELETE")
	r.HandleFunc("/projects/{id}/current-branch", s.switchBranch).Methods("PUT")
	r.HandleFunc("/projects/{id}/merge", s.mergeBranches).Methods("POST")

	r.HandleFunc("/projects/{id}/terms", s.listTerms).Methods("GET")
	r.HandleFunc("/projects/{id}/terms", s.addTerm).Methods("POST")
	r.HandleFunc("/projects/{id}/terms", s.bulkReplaceTerms).Methods("PUT")
	r.HandleFunc("/projects/{id}/terms/{termId}", s.updateTerm).Methods("PATCH")
	r.HandleFunc("/projects/{id}/terms/{termId}", s.deleteTerm).Methods("DELETE")
	r.HandleFunc("/projects/{id}/terms/{termId}/translations/{lang}", s.updateTranslation).Methods("PUT")

	r.HandleFunc("/projects/{id}/branches/{name}/commits", s.createCommit).Methods("POST")
	r.HandleFunc("/projects/{id}/branches/{name}/commits", s.listCommits).Methods("GET")
	r.HandleFunc("/projects/{id}/branches/{name}/rollback", s.rollback).Methods("POST")

	r.HandleFunc("/projects/{id}/export.csv", s.exportCSV).Methods("GET")
	r.HandleFunc("/projects/{id}/import.csv", s.importCSV).Methods("POST")

	return handlers.CombinedLoggingHandler(os.Stdout, setJSONHeaders(r))
}

func setJSONHeaders(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		h.ServeHTTP(w, r)
	})
}

func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "anonymous"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

// writeError maps the taxonomy onto HTTP statuses: absent entities are
// 404, rule violations are 409, bad arguments are 422.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrProjectNotFound),
		errors.Is(err, domain.ErrBranchNotFound),
		errors.Is(err, domain.ErrSourceBranchNotFound),
		errors.Is(err, domain.ErrCommitNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBranchNameExists),
		errors.Is(err, domain.ErrCannotDeleteMain),
		errors.Is(err, domain.ErrCannotRollback):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		s.d.Log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
