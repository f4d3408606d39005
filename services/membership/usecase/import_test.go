package usecase

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"mdpva/domain"
	"mdpva/services/membership/importer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeMemberRepo is an in-memory stand-in for the Postgres store.
type fakeMemberRepo struct {
	nextID    int
	members   map[int]*domain.Member
	lookupErr error
	updateErr error
	createErr error
}

func newFakeRepo() *fakeMemberRepo {
	return &fakeMemberRepo{nextID: 1, members: make(map[int]*domain.Member)}
}

func (f *fakeMemberRepo) seed(m domain.Member) *domain.Member {
	m.ID = f.nextID
	f.nextID++
	f.members[m.ID] = &m
	return f.members[m.ID]
}

func (f *fakeMemberRepo) List(ctx context.Context, q domain.MemberQuery) (*[]domain.Member, error) {
	var out []domain.Member
	for _, m := range f.members {
		if !m.DeletedAt.Valid {
			out = append(out, *m)
		}
	}
	return &out, nil
}

func (f *fakeMemberRepo) Count(ctx context.Context, q domain.MemberQuery) (int64, error) {
	list, _ := f.List(ctx, q)
	return int64(len(*list)), nil
}

func (f *fakeMemberRepo) GetByID(ctx context.Context, id int) (*domain.Member, error) {
	m, ok := f.members[id]
	if !ok || m.DeletedAt.Valid {
		return nil, fmt.Errorf("member with ID %d not found", id)
	}
	return m, nil
}

func (f *fakeMemberRepo) Create(ctx context.Context, m *domain.Member) error {
	if f.createErr != nil {
		return f.createErr
	}
	m.ID = f.nextID
	f.nextID++
	f.members[m.ID] = m
	return nil
}

func (f *fakeMemberRepo) Update(ctx context.Context, id int, fields map[string]interface{}) error {
	return f.ApplyUpdate(ctx, id, fields)
}

func (f *fakeMemberRepo) SoftDelete(ctx context.Context, id int) error {
	m, ok := f.members[id]
	if !ok {
		return fmt.Errorf("member with ID %d not found", id)
	}
	m.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	return nil
}

func (f *fakeMemberRepo) Restore(ctx context.Context, id int) error {
	m, ok := f.members[id]
	if !ok {
		return fmt.Errorf("no deleted member with ID %d", id)
	}
	m.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (f *fakeMemberRepo) MassDelete(ctx context.Context, ids *[]int) error {
	for _, id := range *ids {
		f.SoftDelete(ctx, id)
	}
	return nil
}

func (f *fakeMemberRepo) SetPhotoURL(ctx context.Context, id int, url string) error {
	m, ok := f.members[id]
	if !ok {
		return fmt.Errorf("member with ID %d not found", id)
	}
	m.ProfilePhotoURL = &url
	return nil
}

func (f *fakeMemberRepo) FindAnyByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Member, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	for _, m := range f.members {
		if m.Email == email || m.Phone == phone {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMemberRepo) ApplyUpdate(ctx context.Context, id int, fields map[string]interface{}) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	m, ok := f.members[id]
	if !ok {
		return fmt.Errorf("member with ID %d not found", id)
	}
	if v, ok := fields["first_name"].(string); ok {
		m.FirstName = v
	}
	if v, ok := fields["email"].(string); ok {
		m.Email = v
	}
	if v, ok := fields["phone"].(string); ok {
		m.Phone = v
	}
	if da, present := fields["deleted_at"]; present && da == nil {
		m.DeletedAt = gorm.DeletedAt{}
	}
	return nil
}

func (f *fakeMemberRepo) CountExistingDuplicates(ctx context.Context, emails, phones []string) (int64, error) {
	if f.lookupErr != nil {
		return 0, f.lookupErr
	}
	var n int64
	for _, m := range f.members {
		for _, e := range emails {
			if m.Email == e {
				n++
			}
		}
		for _, p := range phones {
			if m.Phone == p {
				n++
			}
		}
	}
	return n, nil
}

func (f *fakeMemberRepo) ExistsConflict(ctx context.Context, email, phone string, excludeID int) (bool, bool, error) {
	var emailTaken, phoneTaken bool
	for _, m := range f.members {
		if m.ID == excludeID || m.DeletedAt.Valid {
			continue
		}
		if m.Email == email {
			emailTaken = true
		}
		if m.Phone == phone {
			phoneTaken = true
		}
	}
	return emailTaken, phoneTaken, nil
}

type fakeAllocator struct {
	n   int
	err error
}

func (f *fakeAllocator) Allocate(ctx context.Context, year int) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.n++
	return domain.FormatMemberID(year, f.n), nil
}

func importCSV(content string, policy domain.DuplicatePolicy) *domain.ImportBatch {
	rows := importer.Tokenize(content)
	headers := rows[0]
	mapping := make(map[string]string, len(headers))
	for _, h := range headers {
		mapping[h] = strings.TrimSpace(h)
	}
	return &domain.ImportBatch{
		FileName: "members.csv",
		FileSize: int64(len(content)),
		Rows:     rows,
		Mapping:  mapping,
		Policy:   policy,
	}
}

const csvHeader = "first_name,last_name,email,phone,profession,address_line1,pincode,city,state,status"

func csvRow(first, email, phone string) string {
	return fmt.Sprintf("%s,Kumar,%s,%s,photographer,12 MG Road,570001,Mysuru,Karnataka,active", first, email, phone)
}

func newImportUC(repo *fakeMemberRepo, alloc *fakeAllocator) *importUseCase {
	return &importUseCase{
		repo: repo,
		seq:  alloc,
		now:  func() time.Time { return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC) },
	}
}

func TestAnalyzeHeaders(t *testing.T) {
	content := "First Name,Surname,Mobile,email\nRavi,Kumar,+91 98765 43210,ravi@x.in\n"
	uc := newImportUC(newFakeRepo(), &fakeAllocator{})

	report, err := uc.AnalyzeHeaders(context.Background(), &domain.ImportBatch{
		FileName: "m.csv",
		Rows:     importer.Tokenize(content),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"First Name", "Surname", "Mobile", "email"}, report.Headers)
	assert.Equal(t, 1, report.TotalRows)
	assert.Equal(t, "first_name", report.Suggestions["First Name"])
	assert.Equal(t, "phone", report.Suggestions["Mobile"])
	// nothing maps to these, so they surface as missing
	assert.Contains(t, report.MissingRequired, "profession")
	assert.Contains(t, report.MissingRequired, "pincode")
	assert.NotContains(t, report.MissingRequired, "email")
	assert.Len(t, report.Preview, 1)
}

func TestEmptyBatchRejectedByEveryPhase(t *testing.T) {
	uc := newImportUC(newFakeRepo(), &fakeAllocator{})
	batch := &domain.ImportBatch{FileName: "empty.csv", Policy: domain.PolicySkip}

	_, err := uc.AnalyzeHeaders(context.Background(), batch)
	assert.EqualError(t, err, "import batch has no rows")

	_, err = uc.DryRun(context.Background(), batch)
	assert.EqualError(t, err, "import batch has no rows")

	_, err = uc.Apply(context.Background(), batch)
	assert.EqualError(t, err, "import batch has no rows")
}

func TestDryRunCountsInvalidAndDuplicates(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(domain.Member{MemberID: "MDPVA2500001", Email: "known@x.in", Phone: "+910000000000"})

	content := csvHeader + "\n" +
		csvRow("Ravi", "ravi@x.in", "+911111111111") + "\n" +
		csvRow("Asha", "bad-email", "+912222222222") + "\n" +
		csvRow("Dupe", "ravi@x.in", "+913333333333") + "\n" +
		csvRow("Known", "known@x.in", "+914444444444") + "\n"

	uc := newImportUC(repo, &fakeAllocator{})
	report, err := uc.DryRun(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)

	assert.Equal(t, 4, report.Summary.Total)
	assert.Equal(t, 3, report.Summary.Valid)
	assert.Equal(t, 1, report.Summary.Invalid)
	assert.Equal(t, 1, report.Summary.DuplicateWithinFile)
	assert.Equal(t, 1, report.Summary.DuplicateExisting)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, 3, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Issues, "Invalid email")
}

func TestApplyCreatesThenSkips(t *testing.T) {
	repo := newFakeRepo()
	alloc := &fakeAllocator{}
	uc := newImportUC(repo, alloc)

	content := csvHeader + "\n" +
		csvRow("Ravi", "ravi@x.in", "+911111111111") + "\n" +
		csvRow("Asha", "asha@x.in", "+912222222222") + "\n"

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.Created)
	assert.Len(t, repo.members, 2)

	// second run of the same file is a no-op under skip
	report, err = uc.Apply(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)
	assert.Equal(t, 0, report.Summary.Created)
	assert.Equal(t, 2, report.Summary.Skipped)
	assert.Len(t, repo.members, 2)
	for _, r := range report.Results {
		assert.Equal(t, domain.RowSkipped, r.Status)
		assert.Equal(t, "Duplicate existing", r.Reason)
	}
}

func TestApplyUpdatePolicy(t *testing.T) {
	repo := newFakeRepo()
	existing := repo.seed(domain.Member{MemberID: "MDPVA2500001", FirstName: "Old", Email: "ravi@x.in", Phone: "+911111111111"})

	content := csvHeader + "\n" + csvRow("New", "ravi@x.in", "+911111111111") + "\n"
	uc := newImportUC(repo, &fakeAllocator{})

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicyUpdate))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Updated)
	assert.Equal(t, "New", existing.FirstName)
}

func TestApplyUndeleteResurrectsDeleted(t *testing.T) {
	repo := newFakeRepo()
	existing := repo.seed(domain.Member{MemberID: "MDPVA2500001", FirstName: "Old", Email: "ravi@x.in", Phone: "+911111111111"})
	existing.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	content := csvHeader + "\n" + csvRow("Back", "ravi@x.in", "+911111111111") + "\n"
	uc := newImportUC(repo, &fakeAllocator{})

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicyUndelete))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Undeleted)
	assert.False(t, existing.DeletedAt.Valid)
	assert.Equal(t, "Back", existing.FirstName)
}

func TestApplyUndeleteSkipsLiveDuplicate(t *testing.T) {
	repo := newFakeRepo()
	existing := repo.seed(domain.Member{MemberID: "MDPVA2500001", FirstName: "Old", Email: "ravi@x.in", Phone: "+911111111111"})

	content := csvHeader + "\n" + csvRow("New", "ravi@x.in", "+911111111111") + "\n"
	uc := newImportUC(repo, &fakeAllocator{})

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicyUndelete))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Equal(t, "Duplicate existing", report.Results[0].Reason)
	assert.Equal(t, "Old", existing.FirstName)
}

func TestApplySkipPolicyLeavesDeletedAlone(t *testing.T) {
	repo := newFakeRepo()
	existing := repo.seed(domain.Member{MemberID: "MDPVA2500001", Email: "ravi@x.in", Phone: "+911111111111"})
	existing.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}

	content := csvHeader + "\n" + csvRow("Ravi", "ravi@x.in", "+911111111111") + "\n"
	uc := newImportUC(repo, &fakeAllocator{})

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Skipped)
	assert.Equal(t, "Soft-deleted duplicate", report.Results[0].Reason)
	assert.True(t, existing.DeletedAt.Valid)
}

func TestApplyMissingRequiredFailsRowWithoutWrite(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUC(repo, &fakeAllocator{})

	content := csvHeader + "\n" +
		",Kumar,no-first@x.in,+911111111111,photographer,12 MG Road,570001,Mysuru,Karnataka,active\n" +
		csvRow("Asha", "asha@x.in", "+912222222222") + "\n"

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)

	assert.Equal(t, 1, report.Summary.Failed)
	assert.Equal(t, 1, report.Summary.Created)
	assert.Equal(t, 2, report.Results[0].Row)
	assert.True(t, strings.HasPrefix(report.Results[0].Reason, "Missing required: first_name"))
	assert.Len(t, repo.members, 1)
}

func TestApplyLookupFailureContinuesBatch(t *testing.T) {
	repo := newFakeRepo()
	repo.lookupErr = fmt.Errorf("connection reset")
	uc := newImportUC(repo, &fakeAllocator{})

	content := csvHeader + "\n" +
		csvRow("Ravi", "ravi@x.in", "+911111111111") + "\n" +
		csvRow("Asha", "asha@x.in", "+912222222222") + "\n"

	report, err := uc.Apply(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)

	assert.Equal(t, 2, report.Summary.Failed)
	for _, r := range report.Results {
		assert.True(t, strings.HasPrefix(r.Reason, "Lookup failed:"))
	}
}

func TestApplyAllocatesSequentialIDs(t *testing.T) {
	repo := newFakeRepo()
	uc := newImportUC(repo, &fakeAllocator{})

	content := csvHeader + "\n" +
		csvRow("Ravi", "ravi@x.in", "+911111111111") + "\n" +
		csvRow("Asha", "asha@x.in", "+912222222222") + "\n"

	_, err := uc.Apply(context.Background(), importCSV(content, domain.PolicySkip))
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, m := range repo.members {
		ids[m.MemberID] = true
	}
	assert.True(t, ids["MDPVA2600001"])
	assert.True(t, ids["MDPVA2600002"])
}
