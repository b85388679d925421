package driven

import (
	"context"

	"github.com/custodia-labs/docchat/internal/core/domain"
)

// UploadSource supplies the live upload set. The set may shrink between calls.
type UploadSource interface {
	// Uploads returns the uploads currently selected, in selection order.
	Uploads(ctx context.Context) ([]domain.Upload, error)
}
