package model

import (
	"time"
)

type VehicleType string

const (
	VehicleTypeAuto  VehicleType = "auto"
	VehicleTypeMini  VehicleType = "mini"
	VehicleTypeSedan VehicleType = "sedan"
	VehicleTypeSUV   VehicleType = "suv"
)

// Vehicle is a registered cab. Like Driver, its Is*Verified flags are a
// projection of the vehicle's document verifications.
type Vehicle struct {
	ID                 uint        `gorm:"primarykey" json:"id"`
	DriverID           *uint       `gorm:"index" json:"driver_id,omitempty"`
	RegistrationNumber string      `gorm:"type:varchar(20);uniqueIndex;not null" json:"registration_number"`
	Make               string      `gorm:"type:varchar(50)" json:"make"`
	Model              string      `gorm:"type:varchar(50)" json:"model"`
	VehicleType        VehicleType `gorm:"type:varchar(20)" json:"vehicle_type"`

	IsRcVerified        bool `gorm:"default:false;not null" json:"is_rc_verified"`
	IsPucVerified       bool `gorm:"default:false;not null" json:"is_puc_verified"`
	IsInsuranceVerified bool `gorm:"default:false;not null" json:"is_insurance_verified"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Vehicle) TableName() string {
	return "vehicles"
}
