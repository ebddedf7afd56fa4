package printing

import (
	"bytes"
	"context"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// A4 paper dimensions in millimeters.
const (
	a4WidthMM  = 210.0
	a4HeightMM = 297.0
)

// Margins are the print margins in millimeters
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// DefaultMargins returns the standard invoice print margins
func DefaultMargins() Margins {
	return Margins{Top: 15, Right: 15, Bottom: 15, Left: 15}
}

// RenderRequest contains the parameters for rendering HTML to PDF
type RenderRequest struct {
	// HTML content to render
	HTML string
	// Title for the PDF document metadata
	Title string
	// Margins in millimeters; zero value uses DefaultMargins
	Margins Margins
	// Timeout overrides the renderer's default timeout
	Timeout time.Duration
}

// RenderResult contains the output from PDF rendering
type RenderResult struct {
	// PDFData is the raw PDF file content
	PDFData []byte
	// PageCount is the number of pages in the PDF
	PageCount int
	// RenderDuration is how long the rendering took
	RenderDuration time.Duration
}

// PDFRenderer converts HTML to a PDF document
type PDFRenderer interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	// Close releases any resources held by the renderer
	Close() error
}

// RenderError represents an error during PDF rendering
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Error codes for rendering failures
const (
	ErrCodeRenderTimeout  = "RENDER_TIMEOUT"
	ErrCodeRenderFailed   = "RENDER_FAILED"
	ErrCodeInvalidHTML    = "INVALID_HTML"
	ErrCodeBinaryNotFound = "BINARY_NOT_FOUND"
)

// NewRenderError creates a new RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

// verifyPDF sanity-checks renderer output: the bytes must parse as a PDF
// with at least one page. Returns the page count.
func verifyPDF(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, NewRenderError(ErrCodeRenderFailed, "generated PDF is unreadable", err)
	}
	if count < 1 {
		return 0, NewRenderError(ErrCodeRenderFailed, "generated PDF has no pages", nil)
	}
	return count, nil
}

func mmToInches(mm float64) float64 {
	return mm / 25.4
}

func normalizeMargins(m Margins) Margins {
	if m == (Margins{}) {
		return DefaultMargins()
	}
	return m
}
