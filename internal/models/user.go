package models

import "time"

type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Username  string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null" json:"-"`
	Role      string `gorm:"type:varchar(20);not null;index"` // patient, doctor, pharmacist
	IsActive  bool   `gorm:"default:true"`
	Version   int    `gorm:"default:1"`
}
