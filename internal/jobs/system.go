package jobs

import (
	"context"

	"github.com/JaimeStill/smart-ocr/internal/state"
	"github.com/JaimeStill/smart-ocr/pkg/pagination"
)

// System defines the durable job operations.
type System interface {
	Create(ctx context.Context, cmd CreateCommand) (*Job, error)
	Apply(ctx context.Context, jobID string, u state.Update) error
	Complete(ctx context.Context, jobID string, result Result) error
	Delete(ctx context.Context, jobID string) error
	Find(ctx context.Context, jobID string) (*Job, error)
	FindDocument(ctx context.Context, jobID string) (*Document, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Job], error)
}
