package usecase

import (
	"context"
	"testing"
	"time"

	"mdpva/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBlobStore struct {
	uploadedPath string
	uploadedType string
}

func (f *fakeBlobStore) UploadPhoto(ctx context.Context, path, contentType string, data []byte) (string, error) {
	f.uploadedPath = path
	f.uploadedType = contentType
	return "https://cdn.example.com/storage/v1/object/public/member-photos/" + path, nil
}

func (f *fakeBlobStore) ThumbnailURL(publicURL string, width, quality int) string {
	return publicURL
}

func (f *fakeBlobStore) FetchThumbnail(ctx context.Context, publicURL string, width, quality int) ([]byte, error) {
	return nil, nil
}

func newMemberUC(repo *fakeMemberRepo, alloc *fakeAllocator, blob *fakeBlobStore) *memberUseCase {
	return &memberUseCase{
		repo: repo,
		seq:  alloc,
		blob: blob,
		now:  func() time.Time { return time.Date(2026, time.August, 30, 12, 0, 0, 0, time.UTC) },
	}
}

func newMember(email, phone string) *domain.Member {
	return &domain.Member{
		FirstName:    "Ravi",
		LastName:     "Kumar",
		Email:        email,
		Phone:        phone,
		Profession:   domain.ProfessionPhotographer,
		AddressLine1: "12 MG Road",
		City:         "Mysuru",
		State:        "Karnataka",
		Pincode:      "570001",
		Status:       domain.StatusActive,
	}
}

func TestMemberCreateAssignsID(t *testing.T) {
	repo := newFakeRepo()
	uc := newMemberUC(repo, &fakeAllocator{}, &fakeBlobStore{})

	m := newMember("Ravi@X.in", "+911111111111")
	errList, err := uc.Create(context.Background(), m)
	require.NoError(t, err)
	assert.Nil(t, errList)

	assert.Equal(t, "MDPVA2600001", m.MemberID)
	assert.Equal(t, "ravi@x.in", m.Email)
	assert.Len(t, repo.members, 1)
}

func TestMemberCreateConflicts(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(domain.Member{MemberID: "MDPVA2500001", Email: "ravi@x.in", Phone: "+911111111111"})
	uc := newMemberUC(repo, &fakeAllocator{}, &fakeBlobStore{})

	errList, err := uc.Create(context.Background(), newMember("ravi@x.in", "+919999999999"))
	require.Error(t, err)
	require.NotNil(t, errList)
	assert.Equal(t, []string{"Email already registered to another member"}, *errList)
	assert.Len(t, repo.members, 1)
}

func TestMemberUpdateConflictExcludesSelf(t *testing.T) {
	repo := newFakeRepo()
	self := repo.seed(domain.Member{MemberID: "MDPVA2500001", FirstName: "Old", Email: "ravi@x.in", Phone: "+911111111111"})
	uc := newMemberUC(repo, &fakeAllocator{}, &fakeBlobStore{})

	upd := newMember("ravi@x.in", "+911111111111")
	upd.FirstName = "New"
	errList, err := uc.Update(context.Background(), self.ID, upd)
	require.NoError(t, err)
	assert.Nil(t, errList)
	assert.Equal(t, "New", self.FirstName)
}

func TestMemberUpdateConflictWithOther(t *testing.T) {
	repo := newFakeRepo()
	self := repo.seed(domain.Member{MemberID: "MDPVA2500001", Email: "ravi@x.in", Phone: "+911111111111"})
	repo.seed(domain.Member{MemberID: "MDPVA2500002", Email: "asha@x.in", Phone: "+912222222222"})
	uc := newMemberUC(repo, &fakeAllocator{}, &fakeBlobStore{})

	errList, err := uc.Update(context.Background(), self.ID, newMember("asha@x.in", "+911111111111"))
	require.Error(t, err)
	require.NotNil(t, errList)
	assert.Contains(t, *errList, "Email already registered to another member")
}

func TestMemberUploadPhoto(t *testing.T) {
	repo := newFakeRepo()
	m := repo.seed(domain.Member{MemberID: "MDPVA2500001", Email: "ravi@x.in", Phone: "+911111111111"})
	blob := &fakeBlobStore{}
	uc := newMemberUC(repo, &fakeAllocator{}, blob)

	url, err := uc.UploadPhoto(context.Background(), m.ID, "portrait.JPG", "image/jpeg", []byte{0xff, 0xd8})
	require.NoError(t, err)

	assert.Equal(t, "profiles/MDPVA2500001.jpg", blob.uploadedPath)
	assert.Equal(t, "image/jpeg", blob.uploadedType)
	require.NotNil(t, m.ProfilePhotoURL)
	assert.Equal(t, url, *m.ProfilePhotoURL)
}

func TestMemberQRCode(t *testing.T) {
	repo := newFakeRepo()
	m := repo.seed(domain.Member{MemberID: "MDPVA2500001", Email: "ravi@x.in", Phone: "+911111111111"})
	uc := newMemberUC(repo, &fakeAllocator{}, &fakeBlobStore{})

	png, err := uc.QRCode(context.Background(), m.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
