package models

import "gorm.io/gorm"

// Sport is an entry of the sport catalog (e.g. "Tennis", "Pickup Soccer").
type Sport struct {
	gorm.Model
	Name        string `gorm:"size:100;unique;not null"`
	Slug        string `gorm:"size:120;unique;not null"`
	Description string
	Icon        string `gorm:"size:64"`
	Color       string `gorm:"size:32"`
	Category    string `gorm:"size:100;index"`
	IsActive    bool   `gorm:"not null;index"`
}
