package jobs

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/JaimeStill/smart-ocr/internal/state"
	"github.com/JaimeStill/smart-ocr/pkg/pagination"
	"github.com/JaimeStill/smart-ocr/pkg/query"
	"github.com/JaimeStill/smart-ocr/pkg/repository"
)

var jobProjection = query.NewProjectionMap("public", "jobs", "j").
	Project("job_id", "job_id").
	Project("filename", "filename").
	Project("mime", "mime").
	Project("source_uri", "source_uri").
	Project("status", "status").
	Project("progress", "progress").
	Project("stage", "stage").
	Project("document_id", "document_id").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

var documentProjection = query.NewProjectionMap("public", "documents", "d").
	Project("id", "id").
	Project("job_id", "job_id").
	Project("filename", "filename").
	Project("mime", "mime").
	Project("source_uri", "source_uri").
	Project("status", "status").
	Project("text", "text").
	Project("entities_json", "entities").
	Project("tags_json", "tags").
	Project("user_id", "user_id").
	Project("created_at", "created_at").
	Project("updated_at", "updated_at")

var defaultSort = query.SortField{Field: "created_at", Descending: true}

func scanJob(s repository.Scanner) (Job, error) {
	var (
		j      Job
		status string
		docID  sql.NullInt64
	)
	err := s.Scan(
		&j.JobID,
		&j.Filename,
		&j.Mime,
		&j.SourceURI,
		&status,
		&j.Progress,
		&j.Stage,
		&docID,
		&j.CreatedAt,
		&j.UpdatedAt,
	)
	if err != nil {
		return Job{}, err
	}

	if j.Status, err = state.Parse(status); err != nil {
		return Job{}, err
	}
	if docID.Valid {
		j.DocumentID = &docID.Int64
	}
	return j, nil
}

func scanDocument(s repository.Scanner) (Document, error) {
	var (
		d        Document
		status   string
		text     sql.NullString
		entities []byte
		tags     []byte
		userID   sql.NullInt64
	)
	err := s.Scan(
		&d.ID,
		&d.JobID,
		&d.Filename,
		&d.Mime,
		&d.SourceURI,
		&status,
		&text,
		&entities,
		&tags,
		&userID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}

	if d.Status, err = state.Parse(status); err != nil {
		return Document{}, err
	}
	d.Text = text.String
	if userID.Valid {
		d.UserID = &userID.Int64
	}
	if len(entities) > 0 {
		if err := json.Unmarshal(entities, &d.Entities); err != nil {
			return Document{}, fmt.Errorf("decode entities: %w", err)
		}
	}
	if len(tags) > 0 {
		if err := json.Unmarshal(tags, &d.Tags); err != nil {
			return Document{}, fmt.Errorf("decode tags: %w", err)
		}
	}
	return d, nil
}

// Filters narrows job listings.
type Filters struct {
	Status   *string
	Filename *string
}

// FiltersFromQuery extracts job filters from URL query parameters. The
// status filter is matched case-insensitively and stored in its canonical
// form; unknown states return ErrFilter.
func FiltersFromQuery(values url.Values) (Filters, error) {
	var f Filters

	if raw := values.Get("status"); raw != "" {
		s, err := state.Parse(strings.ToUpper(raw))
		if err != nil {
			return Filters{}, fmt.Errorf("%w: %w", ErrFilter, err)
		}
		status := string(s)
		f.Status = &status
	}
	if n := values.Get("filename"); n != "" {
		f.Filename = &n
	}
	return f, nil
}

// SortableFields lists the job columns a listing may be ordered by.
var SortableFields = []string{"created_at", "updated_at", "progress", "status", "filename"}

// NewPageParser reads job listing pages, newest first by default.
func NewPageParser(cfg pagination.Config) *pagination.Parser {
	return pagination.NewParser(cfg, []query.SortField{defaultSort}, SortableFields...)
}

// Apply adds filter conditions to the query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	if f.Status != nil {
		b.WhereEquals("status", *f.Status)
	}
	return b.WhereContains("filename", f.Filename)
}

// nullableState maps an empty state to NULL so COALESCE keeps the stored value.
func nullableState(s state.State) any {
	if s == "" {
		return nil
	}
	return string(s)
}

func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
