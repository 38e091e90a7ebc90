package repository

import (
	"github.com/ikkim/ridehail-backend/internal/app/model"
)

// FlagTarget is the owning side of the is_<document_type>_verified flags.
// The interface is sealed: driverFlags and vehicleFlags are the only
// implementations, one per model.OwnerType.
type FlagTarget interface {
	OwnerType() model.OwnerType
	// Column returns the flag column for dt, false when this owner has no such flag.
	Column(dt model.DocumentType) (string, bool)
	DocumentTypes() []model.DocumentType
	tableName() string
}

type driverFlags struct{}

var driverFlagColumns = map[model.DocumentType]string{
	model.DocumentAadhaar:       "is_aadhaar_verified",
	model.DocumentPAN:           "is_pan_verified",
	model.DocumentDriverLicense: "is_driver_license_verified",
}

func (driverFlags) OwnerType() model.OwnerType { return model.OwnerDriver }

func (driverFlags) Column(dt model.DocumentType) (string, bool) {
	col, ok := driverFlagColumns[dt]
	return col, ok
}

func (driverFlags) DocumentTypes() []model.DocumentType {
	return []model.DocumentType{model.DocumentAadhaar, model.DocumentPAN, model.DocumentDriverLicense}
}

func (driverFlags) tableName() string { return model.Driver{}.TableName() }

type vehicleFlags struct{}

var vehicleFlagColumns = map[model.DocumentType]string{
	model.DocumentRC:        "is_rc_verified",
	model.DocumentPUC:       "is_puc_verified",
	model.DocumentInsurance: "is_insurance_verified",
}

func (vehicleFlags) OwnerType() model.OwnerType { return model.OwnerVehicle }

func (vehicleFlags) Column(dt model.DocumentType) (string, bool) {
	col, ok := vehicleFlagColumns[dt]
	return col, ok
}

func (vehicleFlags) DocumentTypes() []model.DocumentType {
	return []model.DocumentType{model.DocumentRC, model.DocumentPUC, model.DocumentInsurance}
}

func (vehicleFlags) tableName() string { return model.Vehicle{}.TableName() }

var flagTargets = map[model.OwnerType]FlagTarget{
	model.OwnerDriver:  driverFlags{},
	model.OwnerVehicle: vehicleFlags{},
}

// FlagTargetFor returns the flag table of an owner type.
func FlagTargetFor(owner model.OwnerType) (FlagTarget, bool) {
	t, ok := flagTargets[owner]
	return t, ok
}

// FlagTargets returns every owner's flag table, drivers first.
func FlagTargets() []FlagTarget {
	return []FlagTarget{driverFlags{}, vehicleFlags{}}
}
