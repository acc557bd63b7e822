package services

import (
	"github.com/atelierhaus/portfolio-backend/internal/config"
	"github.com/atelierhaus/portfolio-backend/pkg/validation"
)

// UploadFile is one file of an upload batch, already read into memory by the
// transport layer.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Data        []byte
}

// UploadValidator enforces the batch constraints before anything reaches the
// store. The whole batch passes or the whole batch is rejected.
type UploadValidator struct {
	maxFiles    int
	maxFileSize int64
}

func NewUploadValidator(cfg *config.Config) *UploadValidator {
	return &UploadValidator{
		maxFiles:    cfg.UploadMaxFiles,
		maxFileSize: cfg.UploadMaxFileSize,
	}
}

// ValidateBatch checks count, per-file size and file type. It performs no
// side effects; persistence happens elsewhere.
func (v *UploadValidator) ValidateBatch(files []UploadFile) error {
	if len(files) == 0 {
		return newError(KindValidation, "please upload at least one file")
	}
	if len(files) > v.maxFiles {
		return newError(KindValidation, "maximum %d files allowed per upload, got %d", v.maxFiles, len(files))
	}
	for _, f := range files {
		if len(f.Data) == 0 {
			return newError(KindValidation, "file %q is empty or corrupted", f.Filename)
		}
		if f.Size > v.maxFileSize || int64(len(f.Data)) > v.maxFileSize {
			return newError(KindValidation, "file %q exceeds the %d MB limit", f.Filename, v.maxFileSize/(1024*1024))
		}
		if !validation.AllowedFileType(f.Filename, f.ContentType) {
			return newError(KindValidation,
				"unsupported file type %q for %q: allowed types are images, PDF, CSV and spreadsheet files",
				f.ContentType, f.Filename)
		}
	}
	return nil
}
