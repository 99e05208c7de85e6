package exports

import (
	"time"

	"github.com/google/uuid"
)

// Export is a stored rendering of the dose table and recommendation.
type Export struct {
	ID        uuid.UUID
	Format    string // "pdf" or "csv"
	Language  string
	ObjectKey *string
	SizeBytes int64
	CreatedAt time.Time
}

type CreateExportRequest struct {
	Format string `json:"format"` // "pdf" or "csv"
}

type ExportDTO struct {
	ID          uuid.UUID `json:"id"`
	Format      string    `json:"format"`
	Language    string    `json:"language"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `json:"created_at"`
}

type ExportsResponse struct {
	Exports []ExportDTO `json:"exports"`
}

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"
)

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
