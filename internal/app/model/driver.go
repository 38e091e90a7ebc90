package model

import (
	"time"
)

type DriverStatus string

const (
	DriverStatusOnboarding DriverStatus = "onboarding"
	DriverStatusActive     DriverStatus = "active"
	DriverStatusSuspended  DriverStatus = "suspended"
)

// Driver is the driver profile attached to a user account.
// The Is*Verified flags mirror the latest verification status of the driver's
// documents and are written only by the verification service.
type Driver struct {
	ID            uint         `gorm:"primarykey" json:"id"`
	UserID        uint         `gorm:"uniqueIndex;not null" json:"user_id"`
	User          User         `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"user"`
	LicenseNumber string       `gorm:"type:varchar(32)" json:"license_number"`
	Status        DriverStatus `gorm:"type:varchar(20);default:'onboarding'" json:"status"`

	IsAadhaarVerified       bool `gorm:"default:false;not null" json:"is_aadhaar_verified"`
	IsPanVerified           bool `gorm:"default:false;not null" json:"is_pan_verified"`
	IsDriverLicenseVerified bool `gorm:"default:false;not null" json:"is_driver_license_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Driver) TableName() string {
	return "drivers"
}
