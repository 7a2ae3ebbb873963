package models

// StylePreset is a reusable prompt fragment offered to users.
type StylePreset struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	Name         string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description  string `gorm:"type:text" json:"description"`
	ThumbnailURL string `gorm:"size:500" json:"thumbnailUrl"`
	Prompt       string `gorm:"type:text;not null" json:"prompt"`
	Category     string `gorm:"size:100" json:"category"`
	IsPublic     bool   `gorm:"not null" json:"isPublic"`
}

// TableName overrides the gorm table name.
func (StylePreset) TableName() string {
	return "style_presets"
}
