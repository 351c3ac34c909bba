package models

import "time"

// Crud represents the primary resource exposed under /crud
type Crud struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`

	// TagIDs keeps the referenced tags in request order. Persisted through CrudTag.
	TagIDs []uint `json:"tag_ids" gorm:"-"`
}

// Clone returns a deep copy so stored state is never aliased by callers.
func (c *Crud) Clone() *Crud {
	if c == nil {
		return nil
	}
	out := *c
	if c.TagIDs != nil {
		out.TagIDs = append([]uint(nil), c.TagIDs...)
	}
	return &out
}

// CrudTag is the ordered join row between a Crud and a Tag
type CrudTag struct {
	CrudID   uint `gorm:"primaryKey;autoIncrement:false"`
	Position int  `gorm:"primaryKey;autoIncrement:false"`
	TagID    uint `gorm:"not null;index:idx_crud_tags_tag"`

	// Foreign Key Relations
	Crud *Crud `gorm:"foreignKey:CrudID;constraint:OnDelete:CASCADE"`
	Tag  *Tag  `gorm:"foreignKey:TagID;constraint:OnDelete:RESTRICT"`
}

// TableName specifies the table name for GORM
func (CrudTag) TableName() string {
	return "crud_tags"
}
