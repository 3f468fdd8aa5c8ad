package driven

import (
	"context"
	"io"

	"github.com/ericfisherdev/mydiary/internal/domain/model"
)

// DocumentWriter serializes a composed document into one output format.
type DocumentWriter interface {
	Format() string      // e.g. "pdf"
	Extension() string   // without the dot
	ContentType() string // MIME type of the output
	Write(ctx context.Context, doc model.Document, w io.Writer) error
}
