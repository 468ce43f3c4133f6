package db

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Role is a user's tier. Only the values below are valid.
type Role string

const (
	RoleBasic   Role = "basic"
	RolePremium Role = "premium"
	RoleAdmin   Role = "admin"
)

// ParseRole accepts a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleBasic, RolePremium, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// CanTransitionTo reports whether a user may move from r to next.
//
//	basic   -> premium | admin
//	premium -> admin
//	admin   -> admin (idempotent promotion)
//
// There is no downgrade path.
func (r Role) CanTransitionTo(next Role) bool {
	switch r {
	case RoleBasic:
		return next == RolePremium || next == RoleAdmin
	case RolePremium:
		return next == RoleAdmin
	case RoleAdmin:
		return next == RoleAdmin
	}
	return false
}

// RequestStatus is the state of a contact request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
)

func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	return s == StatusPending && next == StatusApproved
}

// BiodataType is the candidate's gender as published on the biodata.
type BiodataType string

const (
	BiodataMale   BiodataType = "Male"
	BiodataFemale BiodataType = "Female"
)

// ParseBiodataType normalizes "male", "MALE" etc. to the canonical value.
func ParseBiodataType(s string) (BiodataType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return BiodataMale, nil
	case "female":
		return BiodataFemale, nil
	}
	return "", fmt.Errorf("unknown biodata type %q", s)
}

// PremiumState is derived from the two premium flags on a profile.
type PremiumState int

const (
	PremiumNotRequested PremiumState = iota
	PremiumRequested
	PremiumApproved
)

func (s PremiumState) String() string {
	switch s {
	case PremiumRequested:
		return "requested"
	case PremiumApproved:
		return "approved"
	default:
		return "not_requested"
	}
}

// User table. Email is stored lower-cased and is the join key to profiles.
type User struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name      string    `gorm:"size:128" json:"name"`
	PhotoURL  string    `gorm:"size:512" json:"photoURL,omitempty"`
	Role      Role      `gorm:"size:16;not null;default:basic;index" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleBasic
	}
	return nil
}

// Profile is a published biodata.
//
// BiodataID is the public, sequential identifier; it is unique and never reused.
// ContactEmail references users.email but nothing enforces it.
// Details carries the free-form descriptive fields submitted by the client.
type Profile struct {
	ID                string            `gorm:"primaryKey;size:36" json:"id"`
	BiodataID         int64             `gorm:"uniqueIndex;not null" json:"biodataId"`
	ContactEmail      string            `gorm:"uniqueIndex;size:191;not null" json:"contactEmail"`
	BiodataType       BiodataType       `gorm:"size:16;not null;index" json:"biodataType"`
	Type              string            `gorm:"size:64;index" json:"type,omitempty"`
	Name              string            `gorm:"size:128" json:"name"`
	Age               string            `gorm:"size:16" json:"age"`
	MobileNumber      string            `gorm:"size:32" json:"mobileNumber"`
	ProfileImage      string            `gorm:"size:512" json:"profileImage,omitempty"`
	Occupation        string            `gorm:"size:128" json:"occupation,omitempty"`
	PermanentDivision string            `gorm:"size:64" json:"permanentDivision,omitempty"`
	PresentDivision   string            `gorm:"size:64" json:"presentDivision,omitempty"`
	Details           datatypes.JSONMap `json:"details,omitempty"`
	PremiumRequested  bool              `gorm:"not null;default:false;index" json:"premiumRequested"`
	PremiumApproved   bool              `gorm:"not null;default:false;index" json:"premiumApproved"`
	CreatedAt         time.Time         `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time         `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (p *Profile) BeforeCreate(*gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

func (p *Profile) PremiumState() PremiumState {
	switch {
	case p.PremiumApproved:
		return PremiumApproved
	case p.PremiumRequested:
		return PremiumRequested
	default:
		return PremiumNotRequested
	}
}

// ContactSnapshot is the target profile's contact block, frozen when the
// request is created. It is never refreshed from later profile edits.
type ContactSnapshot struct {
	Name         string `gorm:"size:128" json:"name"`
	MobileNumber string `gorm:"size:32" json:"mobileNumber"`
	ContactEmail string `gorm:"size:191" json:"contactEmail"`
}

// ContactRequest is a paid request to see a profile's contact details.
type ContactRequest struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	UserEmail     string          `gorm:"size:191;not null;index" json:"userEmail"`
	BiodataID     int64           `gorm:"not null;index" json:"biodataId"`
	TransactionID string          `gorm:"size:128;not null;uniqueIndex" json:"transactionId"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amountPaid"`
	Status        RequestStatus   `gorm:"size:16;not null;index" json:"status"`
	RequestedAt   time.Time       `gorm:"not null;index" json:"requestedAt"`
	Snapshot      ContactSnapshot `gorm:"embedded;embeddedPrefix:snapshot_" json:"snapshot"`
}

func (c *ContactRequest) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Favourite is a user's bookmark of a biodata.
//
// Unique index idx_favourite_owner(user_email, biodata_unique_id) keeps at
// most one row per pair.
type Favourite struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	UserEmail        string    `gorm:"size:191;not null;uniqueIndex:idx_favourite_owner,priority:1" json:"userEmail"`
	BiodataUniqueID  string    `gorm:"size:64;not null;uniqueIndex:idx_favourite_owner,priority:2" json:"biodataUniqueId"`
	Name             string    `gorm:"size:128" json:"name"`
	PermanentAddress string    `gorm:"size:255" json:"permanentAddress"`
	Occupation       string    `gorm:"size:128" json:"occupation"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (f *Favourite) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type SuccessStory struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	CoupleImage  string    `gorm:"size:512;not null" json:"coupleImage"`
	MarriageDate time.Time `gorm:"not null;index" json:"marriageDate"`
	Rating       int       `gorm:"not null" json:"rating"`
	Story        string    `gorm:"type:text;not null" json:"successStory"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (s *SuccessStory) BeforeCreate(*gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// Models lists every table in migration order.
func Models() []any {
	return []any{&User{}, &Profile{}, &ContactRequest{}, &Favourite{}, &SuccessStory{}}
}
