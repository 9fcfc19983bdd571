// Package transfer moves term snapshots in and out of the service as
// CSV, for spreadsheet-driven batch edits.
package transfer

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/Baldarello/localization-pro-sub001/internal/domain"
	"github.com/Baldarello/localization-pro-sub001/internal/usecase/versioning"
)

type Service struct {
	versioning *versioning.Service
}

func New(v *versioning.Service) *Service { return &Service{versioning: v} }

// ExportCSV renders the current branch's working terms as CSV: one row
// per term, one column per language code of the project's language set.
func (s *Service) ExportCSV(ctx context.Context, projectID int64, langs []domain.Language) ([]byte, error) {
	terms, err := s.versioning.ListTerms(ctx, projectID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"id", "text", "context"}
	for _, l := range langs {
		header = append(header, l.Code)
	}
	_ = w.Write(header)
	for _, t := range terms {
		rec := []string{t.ID, t.Text, t.Context}
		for _, l := range langs {
			rec = append(rec, t.Translations[l.Code])
		}
		_ = w.Write(rec)
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// ImportCSV parses a CSV of terms and replaces the current branch's
// working terms wholesale. The header must carry "text"; "id" and
// "context" are optional, every remaining column is treated as a
// language code. Rows without an id get a fresh one.
func (s *Service) ImportCSV(ctx context.Context, projectID int64, actor string, data []byte) (domain.Snapshot, error) {
	data = stripBOM(data)
	r := csv.NewReader(bufio.NewReader(bytes.NewReader(data)))
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}
	idIdx, textIdx, ctxIdx := -1, -1, -1
	langIdx := map[string]int{}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "id":
			idIdx = i
		case "text", "key", "source":
			textIdx = i
		case "context":
			ctxIdx = i
		default:
			code := strings.TrimSpace(h)
			if code != "" {
				langIdx[code] = i
			}
		}
	}
	if textIdx == -1 {
		return nil, errors.New("csv missing 'text' column")
	}
	var terms []domain.Term
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv row")
		}
		text := rec[textIdx]
		if text == "" {
			continue
		}
		t := domain.Term{Text: text, Translations: map[string]string{}}
		if idIdx >= 0 && idIdx < len(rec) {
			t.ID = rec[idIdx]
		}
		if ctxIdx >= 0 && ctxIdx < len(rec) {
			t.Context = rec[ctxIdx]
		}
		for code, i := range langIdx {
			if i < len(rec) && rec[i] != "" {
				t.Translations[code] = rec[i]
			}
		}
		terms = append(terms, t)
	}
	return s.versioning.BulkReplaceTerms(ctx, projectID, actor, terms)
}

func stripBOM(b []byte) []byte {
	bom := []byte{0xEF, 0xBB, 0xBF}
	if len(b) >= 3 && bytes.Equal(b[:3], bom) {
		return b[3:]
	}
	return b
}
