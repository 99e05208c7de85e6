package exports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fdg312/insulin-calc/internal/blob"
	"github.com/fdg312/insulin-calc/internal/dose"
	"github.com/fdg312/insulin-calc/internal/storage"
	"github.com/fdg312/insulin-calc/internal/userctx"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrExportNotFound = errors.New("export not found")
)

// ViewSource provides the calculator state to render.
type ViewSource interface {
	View(ctx context.Context, acceptLanguage string) dose.View
}

// Service handles export business logic
type Service struct {
	storage    storage.ExportsStorage
	source     ViewSource
	generator  *Generator
	blobStore  blob.Store
	presignTTL int
	localMode  bool // true if no blob store configured
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewService(exportsStorage storage.ExportsStorage, source ViewSource, blobStore blob.Store, presignTTL int, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		storage:    exportsStorage,
		source:     source,
		generator:  NewGenerator(),
		blobStore:  blobStore,
		presignTTL: presignTTL,
		localMode:  blobStore == nil,
		log:        logger.WithField("component", "exports"),
		now:        time.Now,
	}
}

// CreateExport renders the current view and stores it.
func (s *Service) CreateExport(ctx context.Context, format, acceptLanguage string) (*Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	view := s.source.View(ctx, acceptLanguage)
	data, err := s.generator.Generate(format, view)
	if err != nil {
		return nil, fmt.Errorf("failed to generate export: %w", err)
	}

	meta := &storage.ExportMeta{
		ID:        uuid.New(),
		Format:    format,
		Language:  string(view.Language),
		SizeBytes: int64(len(data)),
		CreatedAt: s.now().UTC(),
	}

	if s.localMode {
		meta.Data = data
	} else {
		objectKey := fmt.Sprintf("exports/%s.%s", meta.ID.String(), format)
		if _, err := s.blobStore.PutObject(ctx, objectKey, data, contentTypeFor(format)); err != nil {
			return nil, fmt.Errorf("failed to upload export: %w", err)
		}
		meta.ObjectKey = &objectKey
	}

	if err := s.storage.CreateExport(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to save export metadata: %w", err)
	}

	entry := s.log.WithFields(logrus.Fields{
		"export_id":  meta.ID.String(),
		"format":     format,
		"size_bytes": meta.SizeBytes,
	})
	if userID, ok := userctx.GetUserID(ctx); ok {
		entry = entry.WithField("user_id", userID)
	}
	entry.Info("export created")

	return toExport(meta), nil
}

func (s *Service) GetExport(ctx context.Context, id uuid.UUID) (*Export, error) {
	meta, err := s.getMeta(ctx, id)
	if err != nil {
		return nil, err
	}
	return toExport(meta), nil
}

func (s *Service) ListExports(ctx context.Context, limit, offset int) ([]Export, error) {
	metas, err := s.storage.ListExports(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	out := make([]Export, len(metas))
	for i := range metas {
		out[i] = *toExport(&metas[i])
	}
	return out, nil
}

func (s *Service) DeleteExport(ctx context.Context, id uuid.UUID) error {
	meta, err := s.getMeta(ctx, id)
	if err != nil {
		return err
	}

	if !s.localMode && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			// metadata deletion still goes ahead
			s.log.WithError(err).WithField("object_key", *meta.ObjectKey).Warn("failed to delete export object")
		}
	}

	if err := s.storage.DeleteExport(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrExportNotFound
		}
		return fmt.Errorf("failed to delete export metadata: %w", err)
	}
	return nil
}

// DownloadURL returns the local download endpoint, or a presigned URL when
// exports live in object storage.
func (s *Service) DownloadURL(ctx context.Context, e *Export, baseURL string) (string, error) {
	if s.localMode || e.ObjectKey == nil {
		return fmt.Sprintf("%s/v1/exports/%s/download", strings.TrimSuffix(baseURL, "/"), e.ID.String()), nil
	}
	url, err := s.blobStore.PresignGet(ctx, *e.ObjectKey, s.presignTTL)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

// ExportData returns the rendered bytes and their content type.
func (s *Service) ExportData(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	meta, err := s.getMeta(ctx, id)
	if err != nil {
		return nil, "", err
	}
	contentType := contentTypeFor(meta.Format)

	if meta.ObjectKey == nil {
		return meta.Data, contentType, nil
	}
	if s.blobStore == nil {
		return nil, "", fmt.Errorf("object key is set but no blob store is configured")
	}
	data, err := s.blobStore.GetObject(ctx, *meta.ObjectKey)
	if err != nil {
		if errors.Is(err, blob.ErrObjectNotFound) {
			return nil, "", ErrExportNotFound
		}
		return nil, "", fmt.Errorf("failed to fetch export object: %w", err)
	}
	return data, contentType, nil
}

func (s *Service) getMeta(ctx context.Context, id uuid.UUID) (*storage.ExportMeta, error) {
	meta, err := s.storage.GetExport(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrExportNotFound
		}
		return nil, fmt.Errorf("failed to get export: %w", err)
	}
	return meta, nil
}

func toExport(meta *storage.ExportMeta) *Export {
	return &Export{
		ID:        meta.ID,
		Format:    meta.Format,
		Language:  meta.Language,
		ObjectKey: meta.ObjectKey,
		SizeBytes: meta.SizeBytes,
		CreatedAt: meta.CreatedAt,
	}
}
