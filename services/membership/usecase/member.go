package usecase

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"mdpva/domain"

	qrcode "github.com/skip2/go-qrcode"
)

type memberUseCase struct {
	repo domain.MemberRepo
	seq  domain.SequenceAllocator
	blob domain.BlobStore
	now  func() time.Time
}

func NewMemberUseCase(repo domain.MemberRepo, seq domain.SequenceAllocator, blob domain.BlobStore) domain.MemberUseCase {
	return &memberUseCase{
		repo: repo,
		seq:  seq,
		blob: blob,
		now:  time.Now,
	}
}

func (mu *memberUseCase) List(ctx context.Context, q domain.MemberQuery) (*[]domain.Member, int64, error) {
	total, err := mu.repo.Count(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	members, err := mu.repo.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return members, total, nil
}

func (mu *memberUseCase) GetByID(ctx context.Context, id int) (*domain.Member, error) {
	return mu.repo.GetByID(ctx, id)
}

func (mu *memberUseCase) Create(ctx context.Context, m *domain.Member) (*[]string, error) {
	m.Email = strings.ToLower(strings.TrimSpace(m.Email))

	emailTaken, phoneTaken, err := mu.repo.ExistsConflict(ctx, m.Email, m.Phone, 0)
	if err != nil {
		return nil, err
	}
	var errList []string
	if emailTaken {
		errList = append(errList, "Email already registered to another member")
	}
	if phoneTaken {
		errList = append(errList, "Phone already registered to another member")
	}
	if len(errList) > 0 {
		return &errList, fmt.Errorf("member conflicts with existing data")
	}

	memberID, err := mu.seq.Allocate(ctx, mu.now().Year())
	if err != nil {
		return nil, err
	}
	m.MemberID = memberID

	if err := mu.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return nil, nil
}

func (mu *memberUseCase) Update(ctx context.Context, id int, m *domain.Member) (*[]string, error) {
	if _, err := mu.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}

	m.Email = strings.ToLower(strings.TrimSpace(m.Email))

	emailTaken, phoneTaken, err := mu.repo.ExistsConflict(ctx, m.Email, m.Phone, id)
	if err != nil {
		return nil, err
	}
	var errList []string
	if emailTaken {
		errList = append(errList, "Email already registered to another member")
	}
	if phoneTaken {
		errList = append(errList, "Phone already registered to another member")
	}
	if len(errList) > 0 {
		return &errList, fmt.Errorf("member conflicts with existing data")
	}

	// Member ID and timestamps stay server-owned; only profile fields move.
	fields := map[string]interface{}{
		"first_name":    m.FirstName,
		"last_name":     m.LastName,
		"email":         m.Email,
		"phone":         m.Phone,
		"profession":    m.Profession,
		"business_name": m.BusinessName,
		"address_line1": m.AddressLine1,
		"address_line2": m.AddressLine2,
		"area":          m.Area,
		"city":          m.City,
		"state":         m.State,
		"pincode":       m.Pincode,
		"status":        m.Status,
		"dob":           m.DOB,
		"blood_group":   m.BloodGroup,
		"notes":         m.Notes,
	}
	if err := mu.repo.Update(ctx, id, fields); err != nil {
		return nil, err
	}
	return nil, nil
}

func (mu *memberUseCase) Delete(ctx context.Context, id int) error {
	return mu.repo.SoftDelete(ctx, id)
}

func (mu *memberUseCase) Restore(ctx context.Context, id int) error {
	return mu.repo.Restore(ctx, id)
}

func (mu *memberUseCase) MassDelete(ctx context.Context, ids *[]int) error {
	return mu.repo.MassDelete(ctx, ids)
}

func (mu *memberUseCase) UploadPhoto(ctx context.Context, id int, filename, contentType string, data []byte) (string, error) {
	member, err := mu.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}

	publicURL, err := mu.blob.UploadPhoto(ctx, "profiles/"+member.MemberID+ext, contentType, data)
	if err != nil {
		return "", err
	}

	if err := mu.repo.SetPhotoURL(ctx, id, publicURL); err != nil {
		return "", err
	}
	return publicURL, nil
}

func (mu *memberUseCase) QRCode(ctx context.Context, id int) ([]byte, error) {
	member, err := mu.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(member.MemberID, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("could not render QR code: %v", err)
	}
	return png, nil
}
