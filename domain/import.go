package domain

import "context"

// DuplicatePolicy decides what an import row does when it matches an
// existing member by email or phone.
type DuplicatePolicy string

const (
	PolicySkip     DuplicatePolicy = "skip"
	PolicyUpdate   DuplicatePolicy = "update"
	PolicyUndelete DuplicatePolicy = "undelete"
)

func (p DuplicatePolicy) Valid() bool {
	switch p {
	case PolicySkip, PolicyUpdate, PolicyUndelete:
		return true
	}
	return false
}

type RowStatus string

const (
	RowCreated   RowStatus = "created"
	RowUpdated   RowStatus = "updated"
	RowSkipped   RowStatus = "skipped"
	RowUndeleted RowStatus = "undeleted"
	RowFailed    RowStatus = "failed"
)

// RowOutcome reports what happened to one data row during apply. Row is
// 1-indexed over the file, so the first data row is 2 (row 1 is the header).
type RowOutcome struct {
	Row    int       `json:"row"`
	Status RowStatus `json:"status"`
	Reason string    `json:"reason,omitempty"`
}

type RowIssues struct {
	Row    int      `json:"row"`
	Issues []string `json:"issues"`
}

// ImportBatch is one uploaded file plus the caller's choices. It lives for
// a single request; every phase re-parses the uploaded bytes.
type ImportBatch struct {
	FileName string
	FileSize int64
	Rows     [][]string        // tokenized table, header row included
	Mapping  map[string]string // raw header -> canonical field or "ignore"
	Policy   DuplicatePolicy
}

type HeaderReport struct {
	Headers         []string            `json:"headers"`
	TotalRows       int                 `json:"totalRows"`
	Preview         []map[string]string `json:"preview"`
	Required        []string            `json:"required"`
	MissingRequired []string            `json:"missingRequired"`
	Suggestions     map[string]string   `json:"suggestions"`
	FileName        string              `json:"fileName"`
	FileSize        int64               `json:"fileSize"`
}

type DryRunSummary struct {
	Total               int `json:"total"`
	Valid               int `json:"valid"`
	Invalid             int `json:"invalid"`
	DuplicateWithinFile int `json:"duplicateWithinFile"`
	DuplicateExisting   int `json:"duplicateExisting"`
}

type DryRunReport struct {
	HeaderReport
	DuplicatePolicy DuplicatePolicy `json:"duplicatePolicy"`
	Summary         DryRunSummary   `json:"summary"`
	Errors          []RowIssues     `json:"errors"`
}

type ApplySummary struct {
	Total     int `json:"total"`
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Skipped   int `json:"skipped"`
	Undeleted int `json:"undeleted"`
	Failed    int `json:"failed"`
}

type ApplyReport struct {
	HeaderReport
	DuplicatePolicy DuplicatePolicy `json:"duplicatePolicy"`
	Summary         ApplySummary    `json:"summary"`
	Results         []RowOutcome    `json:"results"`
}

type ImportUseCase interface {
	// AnalyzeHeaders is the "headers" phase: no mapping required, no writes.
	AnalyzeHeaders(ctx context.Context, batch *ImportBatch) (*HeaderReport, error)
	// DryRun is the "rows" phase: validate and estimate duplicates, no writes.
	DryRun(ctx context.Context, batch *ImportBatch) (*DryRunReport, error)
	// Apply resolves and writes every row, one outcome per row.
	Apply(ctx context.Context, batch *ImportBatch) (*ApplyReport, error)
}
