package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the store-assigned identifier shared by ledger records
type BaseModel struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
}

// Hook Before Create untuk generate UUID otomatis
func (base *BaseModel) BeforeCreate(tx *gorm.DB) (err error) {
	base.AssignID()
	return
}

// AssignID sets a fresh UUID unless one is already present
func (base *BaseModel) AssignID() {
	if base.ID == uuid.Nil {
		base.ID = uuid.New()
	}
}
