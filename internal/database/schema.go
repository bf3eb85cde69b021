package database

import (
	"time"
)

const TrainingDataTable = "training_data"

// TrainingData is one labeled sample. The is_active default lives in the column
// type rather than a gorm default tag: gorm omits zero valued fields that carry
// a default, so IsActive false would otherwise be stored as true.
type TrainingData struct {
	Id        uint      `gorm:"primaryKey;autoIncrement"`
	Text      string    `gorm:"type:text;not null"`
	Sentiment string    `gorm:"size:20;not null"`
	IsActive  bool      `gorm:"type:boolean default true;not null"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TrainingData) TableName() string {
	return TrainingDataTable
}
