package models

import "time"

// UserStatus is the presence state of an account.
type UserStatus string

const (
	StatusOnline  UserStatus = "ONLINE"
	StatusOffline UserStatus = "OFFLINE"
)

func (s UserStatus) Valid() bool {
	return s == StatusOnline || s == StatusOffline
}

// User is the persisted account record. Password is kept as supplied and is
// never rendered by the HTTP layer.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	Password     string     `json:"password"`
	Token        string     `json:"token"`
	Status       UserStatus `json:"status"`
	CreationDate time.Time  `json:"creation_date"`
	Birthday     *time.Time `json:"birthday,omitempty"`
}

// Credentials is the username/password pair used for creation and login.
type Credentials struct {
	Username string
	Password string
}

// UserPatch carries the profile fields of an update. A nil field is left
// untouched; ClearBirthday unsets the stored birthday.
type UserPatch struct {
	Username      *string
	Birthday      *time.Time
	ClearBirthday bool
}

func (p UserPatch) IsEmpty() bool {
	return p.Username == nil && p.Birthday == nil && !p.ClearBirthday
}

// UserPostDTO is the body of account creation and login.
// @Description Credentials of an account
type UserPostDTO struct {
	Username string `json:"username" example:"testUsername"`
	Password string `json:"password" example:"TestPassword"`
}

// UserPutDTO is the body of a profile update. An empty birthday clears it.
// @Description Profile fields to change
type UserPutDTO struct {
	Username *string `json:"username,omitempty" example:"testUsername"`
	Birthday *string `json:"birthday,omitempty" example:"2000-03-17"`
}

// UserGetDTO is the public representation of an account.
// @Description Public account data
type UserGetDTO struct {
	ID       int64      `json:"id" example:"1"`
	Username string     `json:"username" example:"testUsername"`
	Token    string     `json:"token" example:"5f0c2a9e-6b9e-4f0e-8a55-1f4c3f0b1d2e"`
	Status   UserStatus `json:"status" example:"ONLINE" enums:"ONLINE,OFFLINE"`
}
