package models

import "gorm.io/gorm"

type Client struct {
	gorm.Model
	Name           string `gorm:"size:255;not null" json:"name"`
	Address        string `gorm:"size:255" json:"address"`
	Phone          string `gorm:"size:50;not null" json:"phone"` // primary, unique at the app level
	SecondaryPhone string `gorm:"size:50" json:"secondary_phone"`
	Notes          string `gorm:"type:text" json:"notes"`

	// body measurements, centimeters
	Height   float64 `json:"height"`
	Weight   float64 `json:"weight"`
	Chest    float64 `json:"chest"`
	Waist    float64 `json:"waist"`
	Hips     float64 `json:"hips"`
	Shoulder float64 `json:"shoulder"`
	Sleeve   float64 `json:"sleeve"`
	Inseam   float64 `json:"inseam"`

	Orders []Order `json:"orders,omitempty"`
}
