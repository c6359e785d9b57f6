package models

import (
	"github.com/satohidetada/my-flea-app/internal/utils"
)

// Base carries the SixID primary key shared by most documents.
type Base struct {
	ID utils.SixID `bson:"_id" json:"id"`
}

// GenIDIfEmpty assigns a fresh id unless one is already set.
func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.GenID()
	}
}

// GenID assigns a fresh id. Inserts call it again when the id collides.
func (m *Base) GenID() {
	m.ID = utils.NewSixID()
}
