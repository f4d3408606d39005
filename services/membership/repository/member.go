package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mdpva/domain"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

// duplicateLookupBatch keeps IN-lists inside backend limits.
const duplicateLookupBatch = 500

type memberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(database *gorm.DB) domain.MemberRepo {
	return &memberRepository{
		db: database,
	}
}

// Sort keys exposed by the dashboard and the export endpoint. Each carries
// its documented tiebreak column.
var sortClauses = map[string]string{
	"created_desc": "created_at DESC, member_id DESC",
	"created_asc":  "created_at ASC, member_id ASC",
	"name_asc":     "last_name ASC NULLS FIRST, first_name ASC NULLS FIRST",
	"name_desc":    "last_name DESC NULLS LAST, first_name DESC NULLS LAST",
	"updated_desc": "updated_at DESC, created_at DESC",
	"id_asc":       "member_id ASC",
	"id_desc":      "member_id DESC",
}

func orderClause(sort string) string {
	if clause, ok := sortClauses[sort]; ok {
		return clause
	}
	return sortClauses["created_desc"]
}

// scoped builds the filtered query for the caller's current view. The gorm
// soft-delete scope already excludes deleted rows.
func (mr *memberRepository) scoped(ctx context.Context, q domain.MemberQuery) *gorm.DB {
	tx := mr.db.WithContext(ctx).Model(&domain.Member{})

	if s := strings.TrimSpace(q.Search); s != "" {
		if strings.HasPrefix(strings.ToUpper(s), domain.MemberIDPrefix) {
			tx = tx.Where("member_id ILIKE ?", strings.ToUpper(s)+"%")
		} else {
			like := "%" + s + "%"
			tx = tx.Where(
				"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR member_id ILIKE ?",
				like, like, like, like, like,
			)
		}
	}

	switch q.Filter {
	case "active":
		tx = tx.Where("status = ?", domain.StatusActive)
	case "inactive":
		tx = tx.Where("status = ?", domain.StatusInactive)
	case "newThisMonth":
		now := time.Now()
		firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		tx = tx.Where("created_at >= ?", firstOfMonth)
	}

	return tx
}

func (mr *memberRepository) List(ctx context.Context, q domain.MemberQuery) (*[]domain.Member, error) {
	var members []domain.Member

	tx := mr.scoped(ctx, q).Order(orderClause(q.Sort))
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit).Offset(q.Offset)
	}

	if err := tx.Find(&members).Error; err != nil {
		return nil, fmt.Errorf("could not list members: %v", err)
	}
	return &members, nil
}

func (mr *memberRepository) Count(ctx context.Context, q domain.MemberQuery) (int64, error) {
	var total int64
	if err := mr.scoped(ctx, q).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("could not count members: %v", err)
	}
	return total, nil
}

func (mr *memberRepository) GetByID(ctx context.Context, id int) (*domain.Member, error) {
	var member domain.Member
	err := mr.db.WithContext(ctx).Where("id = ?", id).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("member with ID %d not found", id)
		}
		return nil, fmt.Errorf("could not fetch member: %v", err)
	}
	return &member, nil
}

func (mr *memberRepository) Create(ctx context.Context, m *domain.Member) error {
	now := time.Now()
	m.CreatedAt = now
	m.UpdatedAt = now
	if err := mr.db.WithContext(ctx).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("member already exists (concurrent write): %v", err)
		}
		return fmt.Errorf("could not insert member: %v", err)
	}
	return nil
}

func (mr *memberRepository) Update(ctx context.Context, id int, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	res := mr.db.WithContext(ctx).Model(&domain.Member{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("could not update member: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member with ID %d not found", id)
	}
	return nil
}

func (mr *memberRepository) SoftDelete(ctx context.Context, id int) error {
	res := mr.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Member{})
	if res.Error != nil {
		return fmt.Errorf("could not delete member: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("member with ID %d not found", id)
	}
	return nil
}

func (mr *memberRepository) Restore(ctx context.Context, id int) error {
	res := mr.db.WithContext(ctx).Unscoped().Model(&domain.Member{}).
		Where("id = ? AND deleted_at IS NOT NULL", id).
		Updates(map[string]interface{}{"deleted_at": nil, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("could not restore member: %v", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("no deleted member with ID %d", id)
	}
	return nil
}

func (mr *memberRepository) MassDelete(ctx context.Context, ids *[]int) error {
	if ids == nil || len(*ids) == 0 {
		return fmt.Errorf("no member ids given")
	}
	err := mr.db.WithContext(ctx).Where("id IN ?", *ids).Delete(&domain.Member{}).Error
	if err != nil {
		return fmt.Errorf("could not delete members: %v", err)
	}
	return nil
}

func (mr *memberRepository) SetPhotoURL(ctx context.Context, id int, url string) error {
	return mr.Update(ctx, id, map[string]interface{}{"profile_photo_url": url})
}

func (mr *memberRepository) FindAnyByEmailOrPhone(ctx context.Context, email, phone string) (*domain.Member, error) {
	var member domain.Member
	err := mr.db.WithContext(ctx).Unscoped().
		Where("email = ? OR phone = ?", email, phone).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("error checking existing member: %v", err)
	}
	return &member, nil
}

func (mr *memberRepository) ApplyUpdate(ctx context.Context, id int, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	err := mr.db.WithContext(ctx).Unscoped().Model(&domain.Member{}).
		Where("id = ?", id).Updates(fields).Error
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("conflicting member exists: %v", err)
		}
		return fmt.Errorf("could not update member: %v", err)
	}
	return nil
}

func (mr *memberRepository) CountExistingDuplicates(ctx context.Context, emails, phones []string) (int64, error) {
	var total int64

	count := func(column string, values []string) error {
		for _, chunk := range lo.Chunk(lo.Uniq(values), duplicateLookupBatch) {
			var n int64
			err := mr.db.WithContext(ctx).Unscoped().Model(&domain.Member{}).
				Where(column+" IN ?", chunk).Count(&n).Error
			if err != nil {
				return fmt.Errorf("error checking existing %ss: %v", column, err)
			}
			total += n
		}
		return nil
	}

	if err := count("email", emails); err != nil {
		return total, err
	}
	if err := count("phone", phones); err != nil {
		return total, err
	}
	return total, nil
}

func (mr *memberRepository) ExistsConflict(ctx context.Context, email, phone string, excludeID int) (bool, bool, error) {
	var emailTaken, phoneTaken bool

	check := func(column, value string) (bool, error) {
		if value == "" {
			return false, nil
		}
		var existing domain.Member
		tx := mr.db.WithContext(ctx).Where(column+" = ?", value)
		if excludeID > 0 {
			tx = tx.Where("id != ?", excludeID)
		}
		err := tx.First(&existing).Error
		if err == nil {
			return true, nil
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error checking member %s: %v", column, err)
	}

	emailTaken, err := check("email", email)
	if err != nil {
		return false, false, err
	}
	phoneTaken, err = check("phone", phone)
	if err != nil {
		return emailTaken, false, err
	}
	return emailTaken, phoneTaken, nil
}

// isUniqueViolation spots Postgres duplicate-key errors (SQLSTATE 23505),
// which surface when concurrent applies race past the lookup.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
