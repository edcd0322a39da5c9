// Package models holds the client-side view of authgate API payloads.
package models

import "time"

type Profile struct {
	ID             string     `json:"id"`
	FullName       string     `json:"fullName"`
	ProfilePicture *string    `json:"profilePicture"`
	DateOfBirth    *time.Time `json:"dateOfBirth"`
	CountryCode    string     `json:"countryCode"`
	PhoneNumber    *string    `json:"phoneNumber"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Status       string    `json:"status"`
	AuthProvider string    `json:"authProvider"`
	Profile      *Profile  `json:"userProfile"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Session is the result of a successful sign-in or refresh.
type Session struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         *User     `json:"user"`
}

type ProfilePage struct {
	Items      []*Profile `json:"items"`
	Page       int        `json:"page"`
	Size       int        `json:"size"`
	TotalItems int64      `json:"totalItems"`
}

type AvatarUpload struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
