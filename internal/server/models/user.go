// Package models defines server-side data models persisted in the database.
package models

import "time"

// AuthProvider records how a credential was first registered. It never
// changes after creation.
type AuthProvider string

const (
	ProviderBasic  AuthProvider = "BASIC"
	ProviderGoogle AuthProvider = "GOOGLE"
)

// Status is the lifecycle state of a credential.
type Status string

const (
	StatusActive   Status = "ACTIVE"
	StatusInactive Status = "INACTIVE"
)

// UserProfile holds the personal details attached to a credential. It shares
// the credential's ID.
type UserProfile struct {
	ID             string     `json:"id"`
	FullName       string     `json:"fullName"`
	ProfilePicture *string    `json:"profilePicture"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
	CountryCode    string     `json:"countryCode"`
	PhoneNumber    *string    `json:"phoneNumber"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// NewUserProfile returns a freshly registered profile. Optional fields start
// out nil.
func NewUserProfile(id, fullName, countryCode string, now time.Time) *UserProfile {
	return &UserProfile{
		ID:          id,
		FullName:    fullName,
		CountryCode: countryCode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// UserCredential is a stored login identity. Email is unique and serves as
// the session token subject. PasswordHash is never serialised.
type UserCredential struct {
	ID                string       `json:"id"`
	Email             string       `json:"email"`
	PasswordHash      string       `json:"-"`
	Status            Status       `json:"status"`
	AuthProvider      AuthProvider `json:"authProvider"`
	NotificationToken string       `json:"notificationToken"`
	Profile           *UserProfile `json:"userProfile"`
	CreatedAt         time.Time    `json:"createdAt"`
	UpdatedAt         time.Time    `json:"updatedAt"`
}

// NewUserCredential returns an ACTIVE credential bound to profile, sharing its
// ID and creation instant.
func NewUserCredential(profile *UserProfile, email, passwordHash string, provider AuthProvider) *UserCredential {
	return &UserCredential{
		ID:           profile.ID,
		Email:        email,
		PasswordHash: passwordHash,
		Status:       StatusActive,
		AuthProvider: provider,
		Profile:      profile,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.CreatedAt,
	}
}

// IsActive reports whether the credential may be used to access gated
// resources.
func (c *UserCredential) IsActive() bool {
	return c.Status == StatusActive
}
