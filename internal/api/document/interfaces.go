package document

import (
	"context"
	"mime/multipart"

	"github.com/futig/ragchat-backend/internal/entity"
)

type DocumentUsecase interface {
	Ingest(ctx context.Context, documentID, rawText string) (*entity.Document, error)
	Upload(ctx context.Context, files []*multipart.FileHeader) (*entity.UploadDocumentsResponse, error)
	Get(ctx context.Context, documentID string) (*entity.Document, error)
	List(ctx context.Context) ([]*entity.Document, error)
	Delete(ctx context.Context, documentID string) (bool, error)
}
