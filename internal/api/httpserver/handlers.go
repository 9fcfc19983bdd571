package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
)

func pathID(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) createProject(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name            string            `json:"name"`
		Languages       []domain.Language `json:"languages"`
		DefaultLanguage string            `json:"default_language"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	p, err := s.d.Projects.Create(r.Context(), body.Name, body.Languages, body.DefaultLanguage)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := s.d.Projects.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.d.Projects.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) renameProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	p, err := s.d.Projects.Rename(r.Context(), id, body.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.d.Projects.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) updateLanguages(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Languages       []domain.Language `json:"languages"`
		DefaultLanguage string            `json:"default_language"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	p, err := s.d.Projects.UpdateLanguages(r.Context(), id, body.Languages, body.DefaultLanguage)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) addMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Name          string `json:"name"`
		Email         string `json:"email"`
		NotifyCommits *bool  `json:"notify_commits"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	notify := true
	if body.NotifyCommits != nil {
		notify = *body.NotifyCommits
	}
	m, err := s.d.Projects.AddMember(r.Context(), id, body.Name, body.Email, notify)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ms, err := s.d.Projects.ListMembers(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ms)
}

func (s *Server) removeMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := pathID(r, "memberId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.d.Projects.RemoveMember(r.Context(), memberID); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) createBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Name     string `json:"name"`
		Source   string `json:"source"`
		CommitID *int64 `json:"commit_id"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	var b *domain.Branch
	if body.CommitID != nil {
		b, err = s.d.Versioning.CreateBranchFromCommit(r.Context(), id, *body.CommitID, body.Name, actor(r))
	} else {
		b, err = s.d.Versioning.CreateBranch(r.Context(), id, body.Name, body.Source, actor(r))
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) listBranches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	bs, err := s.d.Versioning.ListBranches(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, bs)
}

func (s *Server) deleteBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.DeleteBranch(r.Context(), id, mux.Vars(r)["name"], actor(r)); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) switchBranch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.SwitchCurrentBranch(r.Context(), id, body.Name, actor(r)); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) mergeBranches(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.MergeBranches(r.Context(), id, body.Source, body.Target, actor(r)); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) listTerms(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	terms, err := s.d.Versioning.ListTerms(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, terms)
}

func (s *Server) addTerm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Text string `json:"text"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	t, err := s.d.Versioning.AddTerm(r.Context(), id, actor(r), body.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) bulkReplaceTerms(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body []domain.Term
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	terms, err := s.d.Versioning.BulkReplaceTerms(r.Context(), id, actor(r), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, terms)
}

// updateTerm patches text and/or context as a single mutation with one
// change event. Unknown term ids are a silent no-op, matching the
// engine's contract.
func (s *Server) updateTerm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	termID := mux.Vars(r)["termId"]
	var body struct {
		Text    *string `json:"text"`
		Context *string `json:"context"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.UpdateTerm(r.Context(), id, actor(r), termID, body.Text, body.Context); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) deleteTerm(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.DeleteTerm(r.Context(), id, actor(r), mux.Vars(r)["termId"]); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) updateTranslation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vars := mux.Vars(r)
	var body struct {
		Value string `json:"value"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.UpdateTranslation(r.Context(), id, actor(r), vars["termId"], vars["lang"], body.Value); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) createCommit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body struct {
		Message  string `json:"message"`
		AuthorID int64  `json:"author_id"`
	}
	if err := decode(r, &body); err != nil {
		http.Error(w, fmt.Sprintf("could not decode request (%v)", err), http.StatusBadRequest)
		return
	}
	c, err := s.d.Versioning.CreateCommit(r.Context(), id, mux.Vars(r)["name"], body.Message, body.AuthorID, actor(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) listCommits(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	cs, err := s.d.Versioning.ListCommits(r.Context(), id, mux.Vars(r)["name"])
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (s *Server) rollback(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.d.Versioning.RollbackLatestCommit(r.Context(), id, mux.Vars(r)["name"], actor(r)); err != nil {
		s.writeError(w, err)
		return
	}
	writeOK(w)
}

func (s *Server) exportCSV(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	p, err := s.d.Projects.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := s.d.Transfer.ExportCSV(r.Context(), id, p.Languages)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Name+".csv"))
	_, _ = w.Write(data)
}

func (s *Server) importCSV(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, fmt.Sprintf("could not read request (%v)", err), http.StatusBadRequest)
		return
	}
	terms, err := s.d.Transfer.ImportCSV(r.Context(), id, actor(r), data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, terms)
}
