package models

import (
	"time"

	"github.com/satohidetada/my-flea-app/internal/utils"
)

// User is the public profile of a marketplace member. Credentials live with the
// identity provider, not here.
type User struct {
	Base        `bson:",inline"`
	DisplayName string    `bson:"display_name" json:"display_name"`
	PhotoURL    string    `bson:"photo_url,omitempty" json:"photo_url,omitempty"`
	Prefecture  string    `bson:"prefecture,omitempty" json:"prefecture,omitempty"`
	Bio         string    `bson:"bio,omitempty" json:"bio,omitempty"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// Profile is a user together with the summary of reviews they received.
type Profile struct {
	User
	Reviews ReviewSummary `json:"reviews"`
}

// ProfilePatch holds the profile fields a user may change. Nil fields are left alone.
type ProfilePatch struct {
	DisplayName *string `json:"display_name"`
	PhotoURL    *string `json:"photo_url"`
	Prefecture  *string `json:"prefecture"`
	Bio         *string `json:"bio"`
}

// DefaultProfile is returned for users who never saved a profile.
func DefaultProfile(id utils.SixID) *User {
	return &User{Base: Base{ID: id}}
}
