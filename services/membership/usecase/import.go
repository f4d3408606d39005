package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mdpva/config"
	"mdpva/domain"
	"mdpva/services/membership/importer"
)

// applyChunkSize bounds how many rows are resolved between progress points.
// Tuning knob, not a correctness requirement.
const applyChunkSize = 100

const previewRows = 5

type importUseCase struct {
	repo domain.MemberRepo
	seq  domain.SequenceAllocator
	now  func() time.Time
}

func NewImportUseCase(repo domain.MemberRepo, seq domain.SequenceAllocator) domain.ImportUseCase {
	return &importUseCase{
		repo: repo,
		seq:  seq,
		now:  time.Now,
	}
}

// analyze derives the header report shared by all three phases.
func (iu *importUseCase) analyze(batch *domain.ImportBatch) (*domain.HeaderReport, []string, [][]string, error) {
	if len(batch.Rows) == 0 {
		return nil, nil, nil, fmt.Errorf("import batch has no rows")
	}
	headerRow := batch.Rows[0]
	dataRows := batch.Rows[1:]

	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = strings.TrimSpace(h)
	}

	suggestions := importer.SuggestMapping(headers)

	// A required field counts as covered when some header would map to it,
	// either by exact normalized name or through a suggestion.
	covered := make(map[string]bool)
	for _, target := range suggestions {
		covered[target] = true
	}
	for _, h := range headers {
		covered[importer.NormalizeHeader(h)] = true
	}

	var missingRequired []string
	for _, f := range importer.RequiredFields {
		if !covered[f] {
			missingRequired = append(missingRequired, f)
		}
	}

	preview := make([]map[string]string, 0, previewRows)
	for i, cols := range dataRows {
		if i >= previewRows {
			break
		}
		row := make(map[string]string, len(headers))
		for j, h := range headers {
			v := ""
			if j < len(cols) {
				v = strings.TrimSpace(cols[j])
			}
			row[h] = v
		}
		preview = append(preview, row)
	}

	report := &domain.HeaderReport{
		Headers:         headers,
		TotalRows:       len(dataRows),
		Preview:         preview,
		Required:        importer.RequiredFields,
		MissingRequired: missingRequired,
		Suggestions:     suggestions,
		FileName:        batch.FileName,
		FileSize:        batch.FileSize,
	}
	return report, headers, dataRows, nil
}

func (iu *importUseCase) AnalyzeHeaders(ctx context.Context, batch *domain.ImportBatch) (*domain.HeaderReport, error) {
	report, _, _, err := iu.analyze(batch)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (iu *importUseCase) DryRun(ctx context.Context, batch *domain.ImportBatch) (*domain.DryRunReport, error) {
	base, headers, dataRows, err := iu.analyze(batch)
	if err != nil {
		return nil, err
	}
	records := importer.MapRows(headers, dataRows, batch.Mapping)

	tracker := importer.NewBatchTracker()
	var rowErrors []domain.RowIssues

	for i, rec := range records {
		issues := importer.ValidateRecord(rec, iu.now())
		tracker.Observe(rec["email"], rec["phone"])
		if len(issues) > 0 {
			// +2: header line plus 1-indexing
			rowErrors = append(rowErrors, domain.RowIssues{Row: i + 2, Issues: issues})
		}
	}

	emails, phones := tracker.Distinct()
	duplicateExisting, err := iu.repo.CountExistingDuplicates(ctx, emails, phones)
	if err != nil {
		// The existing-duplicate figure is a summary estimate only; a flaky
		// lookup degrades the estimate, it does not fail the dry-run.
		config.GetLogrusInstance().Warnf("duplicate estimate incomplete: %v", err)
	}

	return &domain.DryRunReport{
		HeaderReport:    *base,
		DuplicatePolicy: batch.Policy,
		Summary: domain.DryRunSummary{
			Total:               len(records),
			Valid:               len(records) - len(rowErrors),
			Invalid:             len(rowErrors),
			DuplicateWithinFile: tracker.DuplicateCount(),
			DuplicateExisting:   int(duplicateExisting),
		},
		Errors: rowErrors,
	}, nil
}

func (iu *importUseCase) Apply(ctx context.Context, batch *domain.ImportBatch) (*domain.ApplyReport, error) {
	base, headers, dataRows, err := iu.analyze(batch)
	if err != nil {
		return nil, err
	}
	records := importer.MapRows(headers, dataRows, batch.Mapping)

	results := make([]domain.RowOutcome, 0, len(records))
	var summary domain.ApplySummary
	summary.Total = len(records)

	record := func(outcome domain.RowOutcome) {
		switch outcome.Status {
		case domain.RowCreated:
			summary.Created++
		case domain.RowUpdated:
			summary.Updated++
		case domain.RowSkipped:
			summary.Skipped++
		case domain.RowUndeleted:
			summary.Undeleted++
		case domain.RowFailed:
			summary.Failed++
		}
		results = append(results, outcome)
	}

	for start := 0; start < len(records); start += applyChunkSize {
		end := start + applyChunkSize
		if end > len(records) {
			end = len(records)
		}
		for i := start; i < end; i++ {
			record(iu.applyRow(ctx, i+2, records[i], batch.Policy))
		}
	}

	return &domain.ApplyReport{
		HeaderReport:    *base,
		DuplicatePolicy: batch.Policy,
		Summary:         summary,
		Results:         results,
	}, nil
}

// applyRow resolves and writes a single row. Every failure is contained to
// the row; the batch always runs to the end.
func (iu *importUseCase) applyRow(ctx context.Context, rowNum int, rec map[string]string, policy domain.DuplicatePolicy) domain.RowOutcome {
	// Dry-run already validated, but apply is a separate request against
	// re-parsed bytes, so the required check runs again before any write.
	var missing []string
	for _, f := range importer.RequiredFields {
		if strings.TrimSpace(rec[f]) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return domain.RowOutcome{Row: rowNum, Status: domain.RowFailed,
			Reason: "Missing required: " + strings.Join(missing, ", ")}
	}

	email := strings.ToLower(rec["email"])
	phone := importer.NormalizePhone(rec["phone"])

	existing, err := iu.repo.FindAnyByEmailOrPhone(ctx, email, phone)
	if err != nil {
		return domain.RowOutcome{Row: rowNum, Status: domain.RowFailed,
			Reason: "Lookup failed: " + err.Error()}
	}

	if existing != nil {
		return iu.resolveDuplicate(ctx, rowNum, rec, email, phone, existing, policy)
	}

	memberID, err := iu.seq.Allocate(ctx, iu.now().Year())
	if err != nil {
		return domain.RowOutcome{Row: rowNum, Status: domain.RowFailed,
			Reason: "Insert failed: " + err.Error()}
	}

	if err := iu.repo.Create(ctx, memberFromRecord(memberID, rec, email, phone)); err != nil {
		return domain.RowOutcome{Row: rowNum, Status: domain.RowFailed,
			Reason: "Insert failed: " + err.Error()}
	}
	return domain.RowOutcome{Row: rowNum, Status: domain.RowCreated}
}

// resolveDuplicate applies the caller's duplicate policy to a row that
// matched an existing member by email or phone.
func (iu *importUseCase) resolveDuplicate(ctx context.Context, rowNum int, rec map[string]string, email, phone string, existing *domain.Member, policy domain.DuplicatePolicy) domain.RowOutcome {
	deleted := existing.DeletedAt.Valid

	if !deleted {
		switch policy {
		case domain.PolicyUpdate:
			if err := iu.repo.ApplyUpdate(ctx, existing.ID, payloadFromRecord(rec, email, phone)); err != nil {
				return domain.RowOutcome{Row: rowNum, Status: domain.RowFailed,
					Reason: "Update failed: " + err.Error()}
			}
			return domain.RowOutcome{Row: rowNum, Status: domain.RowUpdated}
		case domain.PolicyUndelete:
			// Undelete only resurrects; a live duplicate is left untouched.
			return domain.RowOutcome{Row: rowNum, Status: domain.RowSkipped, Reason: "Duplicate existing"}
		default:
			return domain.RowOutcome{Row: rowNum, Status: domain.RowSkipped, Reason: "Duplicate existing"}
		}
	}

	if policy == domain.PolicyUndelete {
		fields := payloadFromRecord(rec, email, phone)
		fields["deleted_at"] = nil
		if err := iu.repo.ApplyUpdate(ctx, existing.ID, fields); err != nil {
			return domain.RowOutcome{Row: rowNum, Status: domain.RowFailed,
				Reason: "Undelete failed: " + err.Error()}
		}
		return domain.RowOutcome{Row: rowNum, Status: domain.RowUndeleted}
	}

	// Update never resurrects a soft-deleted member.
	return domain.RowOutcome{Row: rowNum, Status: domain.RowSkipped, Reason: "Soft-deleted duplicate"}
}

// payloadFromRecord builds the mutable-field column map for update writes.
// Empty optionals become NULL, never empty strings.
func payloadFromRecord(rec map[string]string, email, phone string) map[string]interface{} {
	fields := map[string]interface{}{
		"first_name":    rec["first_name"],
		"last_name":     rec["last_name"],
		"email":         email,
		"phone":         phone,
		"profession":    strings.ToLower(rec["profession"]),
		"business_name": nullable(rec["business_name"]),
		"address_line1": rec["address_line1"],
		"address_line2": nullable(rec["address_line2"]),
		"pincode":       rec["pincode"],
		"area":          nullable(rec["area"]),
		"city":          rec["city"],
		"state":         rec["state"],
		"status":        strings.ToLower(rec["status"]),
		"blood_group":   nullable(rec["blood_group"]),
		"notes":         nullable(rec["notes"]),
	}
	if dob, ok := importer.ParseDOB(rec["dob"]); ok {
		fields["dob"] = dob
	} else {
		fields["dob"] = nil
	}
	return fields
}

// memberFromRecord builds the row for a fresh insert.
func memberFromRecord(memberID string, rec map[string]string, email, phone string) *domain.Member {
	m := &domain.Member{
		MemberID:     memberID,
		FirstName:    rec["first_name"],
		LastName:     rec["last_name"],
		Email:        email,
		Phone:        phone,
		Profession:   strings.ToLower(rec["profession"]),
		BusinessName: optional(rec["business_name"]),
		AddressLine1: rec["address_line1"],
		AddressLine2: optional(rec["address_line2"]),
		Area:         optional(rec["area"]),
		City:         rec["city"],
		State:        rec["state"],
		Pincode:      rec["pincode"],
		Status:       strings.ToLower(rec["status"]),
		BloodGroup:   optional(rec["blood_group"]),
		Notes:        optional(rec["notes"]),
	}
	if dob, ok := importer.ParseDOB(rec["dob"]); ok {
		m.DOB = &dob
	}
	return m
}

func nullable(s string) interface{} {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
