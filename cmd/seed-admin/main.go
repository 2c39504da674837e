// seed-admin creates or updates the bootstrap admin user.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-admin
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/b2bbillings/b2bbillings-sub002/config"
	"github.com/b2bbillings/b2bbillings-sub002/models"
	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail = "admin@b2bbillings.local"
	defaultAdminName  = "Billing Admin"
)

func main() {
	email := flag.String("email", defaultAdminEmail, "Admin email")
	password := flag.String("password", "", "Admin password (required)")
	businessID := flag.String("business-id", "", "Business id to attach. Generated when empty.")
	flag.Parse()

	if strings.TrimSpace(*password) == "" {
		fmt.Fprintln(os.Stderr, "-password is required")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	bid := strings.TrimSpace(*businessID)
	if bid == "" {
		bid = uuid.NewString()
	}

	hashed, err := utils.HashPassword(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}

	adminEmail := strings.ToLower(strings.TrimSpace(*email))

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("email = ?", adminEmail).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			BusinessId: bid,
			Name:       defaultAdminName,
			Email:      adminEmail,
			Password:   string(hashed),
			Role:       "admin",
			IsActive:   utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create admin user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created admin user: email=%q business=%s\n", adminEmail, bid)
		return
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", adminEmail).Updates(map[string]any{
		"password":  string(hashed),
		"is_active": utils.NewTrue(),
		"role":      "admin",
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update admin user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Updated admin user: email=%q business=%s\n", adminEmail, existing.BusinessId)
}
