package repository

import (
	"context"
	"fmt"

	"mdpva/domain"

	"gorm.io/gorm"
)

type sequenceAllocator struct {
	db *gorm.DB
}

// NewSequenceAllocator returns the member-ID allocator. Each calendar year
// gets one counter row; the increment runs inside a transaction so two
// concurrent applies can never be handed the same ID.
func NewSequenceAllocator(database *gorm.DB) domain.SequenceAllocator {
	return &sequenceAllocator{
		db: database,
	}
}

func (sa *sequenceAllocator) Allocate(ctx context.Context, year int) (string, error) {
	suffix := fmt.Sprintf("%02d", year%100)
	prefix := domain.MemberIDPrefix + suffix

	var next int
	err := sa.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// First allocation of the year seeds the counter from the highest
		// identifier already stored, soft-deleted members included, so the
		// sequence continues where legacy data left off.
		err := tx.Exec(`INSERT INTO member_sequences (year_suffix, last_seq)
			SELECT ?, COALESCE(MAX(CAST(RIGHT(member_id, 5) AS INTEGER)), 0)
			FROM members WHERE member_id LIKE ?
			ON CONFLICT (year_suffix) DO NOTHING`, suffix, prefix+"%").Error
		if err != nil {
			return err
		}

		return tx.Raw(`UPDATE member_sequences SET last_seq = last_seq + 1
			WHERE year_suffix = ? RETURNING last_seq`, suffix).Scan(&next).Error
	})
	if err != nil {
		return "", fmt.Errorf("could not allocate member id: %v", err)
	}

	return domain.FormatMemberID(year, next), nil
}
