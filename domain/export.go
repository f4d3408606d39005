package domain

import (
	"context"
	"io"
)

type ExportScope string

const (
	ScopeCurrent ExportScope = "current"
	ScopeAll     ExportScope = "all"
)

type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

type ColumnsMode string

const (
	ColumnsDefault ColumnsMode = "default"
	ColumnsAll     ColumnsMode = "all"
)

// ExportRequest carries the caller's current view. Search/Filter/Sort only
// apply under ScopeCurrent; ScopeAll dumps every live member in a fixed
// deterministic order.
type ExportRequest struct {
	Scope   ExportScope
	Format  ExportFormat
	Search  string
	Filter  string
	Sort    string
	Columns ColumnsMode
}

type ExportUseCase interface {
	Count(ctx context.Context, req ExportRequest) (int64, error)
	Filename(req ExportRequest, total int64) string
	// StreamCSV writes incrementally; a backend failure mid-stream emits an
	// inline error marker line instead of retracting flushed rows.
	StreamCSV(ctx context.Context, req ExportRequest, w io.Writer)
	// RenderPDF materializes the whole document before returning.
	RenderPDF(ctx context.Context, req ExportRequest) ([]byte, error)
}

// RateLimiter guards the export endpoint. Allow reports whether key may
// perform one more request inside the current window.
type RateLimiter interface {
	Allow(key string) bool
}
