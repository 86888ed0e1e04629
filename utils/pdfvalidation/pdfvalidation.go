package pdfvalidation

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFLimits defines the validation limits for PDF uploads
type PDFLimits struct {
	MaxFileSizeMB    int
	MaxPages         int
	DocumentTypeName string // For error messages
}

// AttachmentLimits bounds PDFs shared through the chat
var AttachmentLimits = PDFLimits{
	MaxFileSizeMB:    10,
	MaxPages:         100,
	DocumentTypeName: "attachment",
}

// ValidationResult contains the result of PDF validation
type ValidationResult struct {
	Valid     bool
	PageCount int
	FileSize  int64
	Error     string
}

// ValidatePDFBytes validates an in-memory PDF against the given limits.
// A failed check sets result.Error rather than returning a Go error, so the
// caller can surface the message to the uploader.
func ValidatePDFBytes(filename string, data []byte, limits PDFLimits) (*ValidationResult, error) {
	result := &ValidationResult{
		FileSize: int64(len(data)),
	}

	maxSize := int64(limits.MaxFileSizeMB) * 1024 * 1024
	if result.FileSize > maxSize {
		result.Error = fmt.Sprintf("File size exceeds maximum allowed size of %dMB", limits.MaxFileSizeMB)
		return result, nil
	}

	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		result.Error = "Only PDF files are supported"
		return result, nil
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), result.FileSize)
	if err != nil {
		result.Error = fmt.Sprintf("File is not a valid %s PDF", limits.DocumentTypeName)
		return result, nil
	}

	result.PageCount = reader.NumPage()
	if result.PageCount > limits.MaxPages {
		result.Error = fmt.Sprintf("PDF exceeds maximum of %d pages", limits.MaxPages)
		return result, nil
	}

	result.Valid = true
	return result, nil
}

// ValidatePDFReader drains the reader and validates the content
func ValidatePDFReader(filename string, r io.Reader, limits PDFLimits) (*ValidationResult, []byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, int64(limits.MaxFileSizeMB+1)*1024*1024))
	if err != nil {
		return nil, nil, err
	}
	result, err := ValidatePDFBytes(filename, data, limits)
	return result, data, err
}
