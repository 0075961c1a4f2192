package ports

import (
	"context"
	"io"
)

// FileStorage — объектное хранилище (S3 / MinIO).
type FileStorage interface {
	UploadFile(ctx context.Context, objectKey string, fileContent io.Reader, contentType string) (string, error)
}
