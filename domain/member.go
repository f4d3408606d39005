package domain

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// MemberIDPrefix is the namespace every member identifier starts with.
// Full format: MDPVA{YY}{NNNNN}, YY = two-digit creation year, NNNNN =
// zero-padded sequence that resets each year.
const MemberIDPrefix = "MDPVA"

const (
	ProfessionPhotographer = "photographer"
	ProfessionVideographer = "videographer"
	ProfessionBoth         = "both"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

type Member struct {
	ID              int            `gorm:"primaryKey;autoIncrement" json:"id"`
	MemberID        string         `gorm:"type:varchar(12);not null;unique" json:"member_id"`
	FirstName       string         `gorm:"type:varchar(100);not null" json:"first_name" valid:"required~First name is required"`
	LastName        string         `gorm:"type:varchar(100);not null" json:"last_name" valid:"required~Last name is required"`
	Email           string         `gorm:"type:varchar(255);not null" json:"email" valid:"required~Email is required,email~Invalid email format"`
	Phone           string         `gorm:"type:varchar(20);not null" json:"phone" valid:"required~Phone is required"`
	Profession      string         `gorm:"type:profession_enum;not null" json:"profession" valid:"required~Profession is required,in(photographer|videographer|both)~Invalid profession"`
	BusinessName    *string        `gorm:"type:varchar(150)" json:"business_name,omitempty"`
	AddressLine1    string         `gorm:"type:varchar(255);not null" json:"address_line1" valid:"required~Address line 1 is required"`
	AddressLine2    *string        `gorm:"type:varchar(255)" json:"address_line2,omitempty"`
	Area            *string        `gorm:"type:varchar(100)" json:"area,omitempty"`
	City            string         `gorm:"type:varchar(100);not null" json:"city" valid:"required~City is required"`
	State           string         `gorm:"type:varchar(100);not null" json:"state" valid:"required~State is required"`
	Pincode         string         `gorm:"type:varchar(6);not null" json:"pincode" valid:"required~Pincode is required,matches(^[0-9]{6}$)~Pincode must be exactly 6 digits"`
	Status          string         `gorm:"type:member_status_enum;not null;default:active" json:"status" valid:"required~Status is required,in(active|inactive|suspended)~Invalid status"`
	DOB             *time.Time     `gorm:"type:date" json:"dob,omitempty"`
	BloodGroup      *string        `gorm:"type:varchar(3)" json:"blood_group,omitempty"`
	Notes           *string        `gorm:"type:text" json:"notes,omitempty"`
	ProfilePhotoURL *string        `gorm:"type:text" json:"profile_photo_url,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// MemberSequence backs member-ID allocation with one counter row per
// two-digit year suffix.
type MemberSequence struct {
	YearSuffix string `gorm:"primaryKey;type:varchar(2)" json:"year_suffix"`
	LastSeq    int    `gorm:"not null" json:"last_seq"`
}

// FormatMemberID renders the canonical identifier for a year and sequence
// number, e.g. FormatMemberID(2025, 12) => "MDPVA2500012".
func FormatMemberID(year, seq int) string {
	return fmt.Sprintf("%s%02d%05d", MemberIDPrefix, year%100, seq)
}

// MemberQuery narrows List/Count to the caller's current view.
// Search/Filter/Sort follow the dashboard semantics; Limit 0 means no page
// bound.
type MemberQuery struct {
	Search string
	Filter string // all | active | inactive | newThisMonth
	Sort   string // created_desc | created_asc | name_asc | name_desc | updated_desc | id_asc | id_desc
	Limit  int
	Offset int
}

type MemberRepo interface {
	List(ctx context.Context, q MemberQuery) (*[]Member, error)
	Count(ctx context.Context, q MemberQuery) (int64, error)
	GetByID(ctx context.Context, id int) (*Member, error)
	Create(ctx context.Context, m *Member) error
	Update(ctx context.Context, id int, fields map[string]interface{}) error
	SoftDelete(ctx context.Context, id int) error
	Restore(ctx context.Context, id int) error
	MassDelete(ctx context.Context, ids *[]int) error
	SetPhotoURL(ctx context.Context, id int, url string) error

	// FindAnyByEmailOrPhone includes soft-deleted rows; returns (nil, nil)
	// when no match exists.
	FindAnyByEmailOrPhone(ctx context.Context, email, phone string) (*Member, error)
	// ApplyUpdate overwrites mutable fields regardless of soft-delete state;
	// callers undelete by including "deleted_at": nil.
	ApplyUpdate(ctx context.Context, id int, fields map[string]interface{}) error
	// CountExistingDuplicates counts rows (soft-deleted included) matching
	// any of the given emails or phones, batched to respect backend limits.
	CountExistingDuplicates(ctx context.Context, emails, phones []string) (int64, error)
	// ExistsConflict reports whether email or phone is already taken by a
	// live member other than excludeID (0 = no exclusion).
	ExistsConflict(ctx context.Context, email, phone string, excludeID int) (emailTaken, phoneTaken bool, err error)
}

// SequenceAllocator hands out the next member ID for a calendar year.
// Implementations must serialize allocation so concurrent applies cannot
// produce the same ID.
type SequenceAllocator interface {
	Allocate(ctx context.Context, year int) (string, error)
}

type MemberUseCase interface {
	List(ctx context.Context, q MemberQuery) (*[]Member, int64, error)
	GetByID(ctx context.Context, id int) (*Member, error)
	Create(ctx context.Context, m *Member) (*[]string, error)
	Update(ctx context.Context, id int, m *Member) (*[]string, error)
	Delete(ctx context.Context, id int) error
	Restore(ctx context.Context, id int) error
	MassDelete(ctx context.Context, ids *[]int) error
	UploadPhoto(ctx context.Context, id int, filename, contentType string, data []byte) (string, error)
	QRCode(ctx context.Context, id int) ([]byte, error)
}
