package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee wraps a User with HR fields. Entity assignments scope which
// branches/workshops/factories the employee may act on.
type Employee struct {
	gorm.Model
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `json:"user,omitempty"`

	FullName  string     `gorm:"size:255;not null" json:"full_name"`
	Phone     string     `gorm:"size:50" json:"phone"`
	Salary    float64    `json:"salary"`
	HiredAt   *time.Time `json:"hired_at,omitempty"`
	ManagerID *uint      `gorm:"index" json:"manager_id,omitempty"`

	Assignments []EntityAssignment `json:"assignments,omitempty"`
}

type EntityAssignment struct {
	gorm.Model
	EmployeeID uint   `gorm:"index;not null" json:"employee_id"`
	EntityID   uint   `gorm:"index;not null" json:"entity_id"`
	Entity     Entity `json:"entity,omitempty"`
}
