package models

// AiModel describes a selectable generation backend.
// Key is the routing identifier used by generation requests (for example "dalle").
type AiModel struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	Key          string  `gorm:"column:model_key;uniqueIndex;size:100;not null" json:"key"`
	Name         string  `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description  string  `gorm:"type:text" json:"description"`
	Provider     string  `gorm:"size:100;not null" json:"provider"`
	IsActive     bool    `gorm:"not null" json:"isActive"`
	Capabilities JSONMap `gorm:"type:text" json:"capabilities"`
}

// TableName overrides the gorm table name.
func (AiModel) TableName() string {
	return "ai_models"
}
