package config

import (
	"fmt"
	"mdpva/domain"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var db *gorm.DB

// GetDatabaseURL builds the database connection string.
func GetDatabaseURL() string {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		os.Getenv("DB_HOST"), os.Getenv("DB_PORT"), os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"), os.Getenv("DB_DATABASE"))
	return dsn
}

// BootDB initializes the database connection and runs migrations.
func BootDB() (*gorm.DB, error) {
	url := GetDatabaseURL()
	var err error

	db, err = gorm.Open(postgres.Open(url), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := autoMigrate(db); err != nil {
		return db, err
	}

	fmt.Println("DB initialized")
	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	if err := db.Exec(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'profession_enum') THEN
			CREATE TYPE profession_enum AS ENUM ('photographer', 'videographer', 'both');
		END IF;
	END $$`).Error; err != nil {
		return fmt.Errorf("failed to create profession ENUM: %w", err)
	}

	if err := db.Exec(`DO $$ BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'member_status_enum') THEN
			CREATE TYPE member_status_enum AS ENUM ('active', 'inactive', 'suspended');
		END IF;
	END $$`).Error; err != nil {
		return fmt.Errorf("failed to create status ENUM: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Member{},
		&domain.MemberSequence{},
		&domain.User{},
	); err != nil {
		return fmt.Errorf("failed to migrate tables: %w", err)
	}

	// Email and phone stay unique among live members only; soft-deleted rows
	// are free to collide until undeleted.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_email_live
		ON members (email) WHERE deleted_at IS NULL`).Error; err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_members_phone_live
		ON members (phone) WHERE deleted_at IS NULL`).Error; err != nil {
		return fmt.Errorf("failed to create phone index: %w", err)
	}

	var existingAdmin domain.User
	err := db.Where("role = 'admin' AND deleted_at IS NULL").First(&existingAdmin).Error
	if err != nil {
		fmt.Println("Creating default admin account....")
		adminUsername := os.Getenv("ADMIN_USERNAME")
		adminName := os.Getenv("ADMIN_NAME")
		adminPassword := os.Getenv("ADMIN_PASSWORD")

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("could not hash password: %v", err)
		}

		now := time.Now()
		admin := domain.User{
			Username:  adminUsername,
			Name:      adminName,
			Password:  string(hashedPassword),
			Role:      "admin",
			CreatedAt: now,
			UpdatedAt: now,
		}

		err = db.Create(&admin).Error
		if err != nil {
			return err
		}
		fmt.Println("Admin account created")
	}

	return nil
}
