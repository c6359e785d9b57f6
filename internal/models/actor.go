package models

import "github.com/satohidetada/my-flea-app/internal/utils"

// Actor is the authenticated user performing an operation. It is passed into
// every operation explicitly.
type Actor struct {
	ID          utils.SixID `json:"id"`
	DisplayName string      `json:"display_name"`
}

// Name returns the display name, or a placeholder for anonymous profiles.
func (a Actor) Name() string {
	if a.DisplayName == "" {
		return "匿名ユーザー"
	}
	return a.DisplayName
}
