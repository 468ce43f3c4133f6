package db

import (
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/oggyb/loveknot/internal/logger"
)

var divisions = []string{"Dhaka", "Chattogram", "Rajshahi", "Khulna", "Sylhet", "Barishal", "Rangpur", "Mymensingh"}

// SeedTestData resets the database and populates it with demo data.
//
// Behavior:
//  1. Clears every table.
//  2. Creates 20 users (user1..user20@example.com) and one profile each,
//     biodata ids 1..20, alternating Male/Female.
//  3. Every 4th profile has requested premium; every 8th is already premium.
//  4. user1 is an admin.
//  5. Adds a handful of contact requests, favourites and success stories.
//
// The biodata sequence in Redis must be reset after seeding so it re-reads max(biodata_id).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := clearAll(db); err != nil {
		return err
	}
	logger.Info("seed: cleared existing data")

	profiles := make([]Profile, 0, 20)
	for i := 1; i <= 20; i++ {
		email := fmt.Sprintf("user%d@example.com", i)

		role := RoleBasic
		switch {
		case i == 1:
			role = RoleAdmin
		case i%8 == 0:
			role = RolePremium
		}

		user := User{Email: email, Name: fmt.Sprintf("User %d", i), Role: role}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}

		bt := BiodataMale
		if i%2 == 0 {
			bt = BiodataFemale
		}
		profile := Profile{
			BiodataID:         int64(i),
			ContactEmail:      email,
			BiodataType:       bt,
			Type:              string(bt),
			Name:              user.Name,
			Age:               strconv.Itoa(20 + r.Intn(15)),
			MobileNumber:      fmt.Sprintf("+8801700%06d", i),
			Occupation:        "Engineer",
			PermanentDivision: divisions[r.Intn(len(divisions))],
			PresentDivision:   divisions[r.Intn(len(divisions))],
			PremiumRequested:  i%4 == 0,
			PremiumApproved:   i%8 == 0,
		}
		if err := db.Create(&profile).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		profiles = append(profiles, profile)
	}
	logger.Info("seed: created users and profiles", "count", 20)

	for i := 0; i < 6; i++ {
		target := profiles[r.Intn(len(profiles))]
		status := StatusPending
		if i%2 == 0 {
			status = StatusApproved
		}
		req := ContactRequest{
			UserEmail:     fmt.Sprintf("user%d@example.com", 2+i),
			BiodataID:     target.BiodataID,
			TransactionID: fmt.Sprintf("pi_seed_%d", i),
			AmountPaid:    decimal.NewFromInt(5),
			Status:        status,
			RequestedAt:   time.Now().UTC().Add(-time.Duration(r.Intn(500)) * time.Hour),
			Snapshot: ContactSnapshot{
				Name:         target.Name,
				MobileNumber: target.MobileNumber,
				ContactEmail: target.ContactEmail,
			},
		}
		if err := db.Create(&req).Error; err != nil {
			return fmt.Errorf("failed to seed contact request: %w", err)
		}

		fav := Favourite{
			UserEmail:        req.UserEmail,
			BiodataUniqueID:  target.ID,
			Name:             target.Name,
			PermanentAddress: target.PermanentDivision,
			Occupation:       target.Occupation,
		}
		if err := db.Where(Favourite{UserEmail: fav.UserEmail, BiodataUniqueID: fav.BiodataUniqueID}).
			FirstOrCreate(&fav).Error; err != nil {
			return fmt.Errorf("failed to seed favourite: %w", err)
		}
	}

	for i := 1; i <= 3; i++ {
		story := SuccessStory{
			CoupleImage:  fmt.Sprintf("https://example.com/couples/%d.jpg", i),
			MarriageDate: time.Now().UTC().AddDate(0, -i*3, 0),
			Rating:       3 + r.Intn(3),
			Story:        "We met here and never looked back.",
		}
		if err := db.Create(&story).Error; err != nil {
			return fmt.Errorf("failed to seed success story: %w", err)
		}
	}

	return nil
}

func clearAll(db *gorm.DB) error {
	for _, table := range []string{"contact_requests", "favourites", "success_stories", "profiles", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
