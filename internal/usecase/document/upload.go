package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"sync"

	"github.com/futig/ragchat-backend/internal/entity"
	"github.com/futig/ragchat-backend/internal/pkg/extractor"
	"github.com/futig/ragchat-backend/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Upload validates, extracts and ingests files concurrently. Files that fail
// validation or extraction are reported per file; a storage failure aborts the batch.
func (uc *DocumentUsecase) Upload(ctx context.Context, files []*multipart.FileHeader) (*entity.UploadDocumentsResponse, error) {
	if err := uc.validator.ValidateUpload(files); err != nil {
		return nil, err
	}

	fileDataList, err := uc.prepareFileData(ctx, files)
	if err != nil {
		return nil, fmt.Errorf("prepare files: %w", err)
	}

	return uc.IngestFiles(ctx, fileDataList)
}

// IngestFiles ingests already read files with at most cfg.Workers in flight.
func (uc *DocumentUsecase) IngestFiles(ctx context.Context, files []entity.FileData) (*entity.UploadDocumentsResponse, error) {
	results := make([]*entity.Document, len(files))
	var (
		mu     sync.Mutex
		failed []entity.UploadFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.Workers)

	for i, file := range files {
		g.Go(func() error {
			doc, err := uc.ingestFile(gctx, file)
			switch {
			case err == nil:
				results[i] = doc
				return nil
			case errors.Is(err, entity.ErrStorage):
				return err
			default:
				mu.Lock()
				failed = append(failed, entity.UploadFailure{Filename: file.Filename, Error: err.Error()})
				mu.Unlock()
				return nil
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	resp := &entity.UploadDocumentsResponse{Failed: failed}
	for _, doc := range results {
		if doc != nil {
			resp.Documents = append(resp.Documents, doc)
		}
	}

	ctxzap.Info(ctx, "upload processed",
		zap.Int("ingested", len(resp.Documents)),
		zap.Int("failed", len(resp.Failed)),
	)

	if len(resp.Documents) == 0 && len(resp.Failed) > 0 {
		return resp, fmt.Errorf("%w: no file could be ingested", entity.ErrValidation)
	}
	return resp, nil
}

func (uc *DocumentUsecase) ingestFile(ctx context.Context, file entity.FileData) (*entity.Document, error) {
	mimeType := extractor.DetectMIME(file.Filename, file.ContentType, file.Content)
	text, err := extractor.ExtractText(file.Content, mimeType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", file.Filename, err)
	}
	return uc.Ingest(ctx, file.Filename, text)
}

// prepareFileData reads file contents for extraction
func (uc *DocumentUsecase) prepareFileData(
	ctx context.Context,
	files []*multipart.FileHeader,
) ([]entity.FileData, error) {
	fileDataList := make([]entity.FileData, 0, len(files))

	for _, fh := range files {
		src, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("open file %s: %w", fh.Filename, err)
		}

		content, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", fh.Filename, err)
		}

		fileDataList = append(fileDataList, entity.FileData{
			Filename:    validator.SanitizeFilename(fh.Filename),
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})

		ctxzap.Debug(ctx, "file prepared for ingestion",
			zap.String("filename", fh.Filename),
			zap.Int64("size", fh.Size),
		)
	}

	return fileDataList, nil
}
