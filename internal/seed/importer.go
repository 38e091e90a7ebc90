// Package seed loads reviewers, drivers, vehicles and their documents from an
// XLSX workbook so a fresh environment has a populated review queue.
package seed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/internal/app/repository"
	apperrors "github.com/ikkim/ridehail-backend/internal/errors"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"github.com/ikkim/ridehail-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

const (
	SheetAdmins    = "admins"
	SheetDrivers   = "drivers"
	SheetVehicles  = "vehicles"
	SheetDocuments = "documents"
)

type AdminRow struct {
	Email    string
	Name     string
	Password string
}

type DriverRow struct {
	Email         string
	Name          string
	Phone         string
	LicenseNumber string
}

type VehicleRow struct {
	RegistrationNumber string
	Make               string
	Model              string
	VehicleType        model.VehicleType
	DriverEmail        string
}

// DocumentRow references its owner by driver email or vehicle registration number.
type DocumentRow struct {
	OwnerType      model.OwnerType
	OwnerRef       string
	DocumentType   model.DocumentType
	DocumentNumber string
	FileMime       string
	FileSize       int64
}

type Workbook struct {
	Admins    []AdminRow
	Drivers   []DriverRow
	Vehicles  []VehicleRow
	Documents []DocumentRow
}

// RowError points at the offending cell row, 1-based like the spreadsheet UI.
type RowError struct {
	Sheet string
	Row   int
	Msg   string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %s", e.Sheet, e.Row, e.Msg)
}

type Summary struct {
	Admins    int
	Drivers   int
	Vehicles  int
	Documents int
}

// ReadWorkbook parses every known sheet. Missing sheets are treated as empty.
func ReadWorkbook(f *excelize.File) (*Workbook, error) {
	wb := &Workbook{}

	err := eachRow(f, SheetAdmins, 3, func(n int, row []string) error {
		if row[0] == "" || row[2] == "" {
			return &RowError{Sheet: SheetAdmins, Row: n, Msg: "email and password are required"}
		}
		wb.Admins = append(wb.Admins, AdminRow{Email: row[0], Name: row[1], Password: row[2]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachRow(f, SheetDrivers, 4, func(n int, row []string) error {
		if row[0] == "" || row[1] == "" {
			return &RowError{Sheet: SheetDrivers, Row: n, Msg: "email and name are required"}
		}
		wb.Drivers = append(wb.Drivers, DriverRow{Email: row[0], Name: row[1], Phone: row[2], LicenseNumber: row[3]})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachRow(f, SheetVehicles, 5, func(n int, row []string) error {
		if row[0] == "" {
			return &RowError{Sheet: SheetVehicles, Row: n, Msg: "registration_number is required"}
		}
		wb.Vehicles = append(wb.Vehicles, VehicleRow{
			RegistrationNumber: strings.ToUpper(row[0]),
			Make:               row[1],
			Model:              row[2],
			VehicleType:        model.VehicleType(strings.ToLower(row[3])),
			DriverEmail:        row[4],
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = eachRow(f, SheetDocuments, 6, func(n int, row []string) error {
		owner, ok := model.ParseOwnerType(row[0])
		if !ok {
			return &RowError{Sheet: SheetDocuments, Row: n, Msg: "unknown owner_type " + strconv.Quote(row[0])}
		}
		docType, ok := model.ParseDocumentType(row[2])
		if !ok {
			return &RowError{Sheet: SheetDocuments, Row: n, Msg: "unknown document_type " + strconv.Quote(row[2])}
		}
		target, _ := repository.FlagTargetFor(owner)
		if _, ok := target.Column(docType); !ok {
			return &RowError{Sheet: SheetDocuments, Row: n, Msg: fmt.Sprintf("%s documents cannot belong to a %s", docType, owner)}
		}
		if row[1] == "" {
			return &RowError{Sheet: SheetDocuments, Row: n, Msg: "owner_ref is required"}
		}

		var size int64
		if row[5] != "" {
			v, err := strconv.ParseInt(row[5], 10, 64)
			if err != nil || v < 0 {
				return &RowError{Sheet: SheetDocuments, Row: n, Msg: "file_size must be a non-negative integer"}
			}
			size = v
		}

		ref := row[1]
		if owner == model.OwnerVehicle {
			ref = strings.ToUpper(ref)
		}
		wb.Documents = append(wb.Documents, DocumentRow{
			OwnerType:      owner,
			OwnerRef:       ref,
			DocumentType:   docType,
			DocumentNumber: row[3],
			FileMime:       row[4],
			FileSize:       size,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return wb, nil
}

// eachRow skips the header, blank rows and pads short rows to width cells.
func eachRow(f *excelize.File, sheet string, width int, fn func(n int, row []string) error) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("failed to read %s rows: %w", sheet, err)
	}

	for i, raw := range rows {
		if i == 0 {
			continue
		}
		row := make([]string, width)
		blank := true
		for j := 0; j < width && j < len(raw); j++ {
			row[j] = strings.TrimSpace(raw[j])
			if row[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if err := fn(i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// Import writes the workbook in a single transaction. Every document gets a
// pending verification, and owner flags start false.
func Import(ctx context.Context, db *gorm.DB, wb *Workbook) (*Summary, error) {
	summary := &Summary{}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		drivers := repository.NewDriverRepository(tx)
		vehicles := repository.NewVehicleRepository(tx)
		documents := repository.NewDocumentRepository(tx)

		for _, a := range wb.Admins {
			hash, err := util.HashPassword(a.Password)
			if err != nil {
				return fmt.Errorf("admin %s: %w", a.Email, err)
			}
			user := &model.User{Email: a.Email, Name: a.Name, PasswordHash: hash, Role: model.RoleAdmin}
			if err := users.Create(ctx, user); err != nil {
				return describe(err, "admin "+a.Email)
			}
			summary.Admins++
		}

		driverIDs := make(map[string]uint, len(wb.Drivers))
		for _, d := range wb.Drivers {
			// driver portal login is set up separately
			hash, err := util.PlaceholderPasswordHash()
			if err != nil {
				return err
			}
			user := &model.User{Email: d.Email, Name: d.Name, Phone: d.Phone, PasswordHash: hash, Role: model.RoleDriver}
			if err := users.Create(ctx, user); err != nil {
				return describe(err, "driver "+d.Email)
			}
			driver := &model.Driver{UserID: user.ID, LicenseNumber: d.LicenseNumber, Status: model.DriverStatusOnboarding}
			if err := drivers.Create(ctx, driver); err != nil {
				return describe(err, "driver "+d.Email)
			}
			driverIDs[d.Email] = driver.ID
			summary.Drivers++
		}

		vehicleIDs := make(map[string]uint, len(wb.Vehicles))
		for _, v := range wb.Vehicles {
			vehicle := &model.Vehicle{
				RegistrationNumber: v.RegistrationNumber,
				Make:               v.Make,
				Model:              v.Model,
				VehicleType:        v.VehicleType,
			}
			if v.DriverEmail != "" {
				id, ok := driverIDs[v.DriverEmail]
				if !ok {
					return fmt.Errorf("vehicle %s: unknown driver %s", v.RegistrationNumber, v.DriverEmail)
				}
				vehicle.DriverID = &id
			}
			if err := vehicles.Create(ctx, vehicle); err != nil {
				return describe(err, "vehicle "+v.RegistrationNumber)
			}
			vehicleIDs[v.RegistrationNumber] = vehicle.ID
			summary.Vehicles++
		}

		for _, d := range wb.Documents {
			var ownerID uint
			var ok bool
			switch d.OwnerType {
			case model.OwnerDriver:
				ownerID, ok = driverIDs[d.OwnerRef]
			case model.OwnerVehicle:
				ownerID, ok = vehicleIDs[d.OwnerRef]
			}
			if !ok {
				return fmt.Errorf("%s document: unknown %s %s", d.DocumentType, d.OwnerType, d.OwnerRef)
			}

			doc := &model.Document{
				OwnerType:      d.OwnerType,
				OwnerID:        ownerID,
				DocumentType:   d.DocumentType,
				DocumentNumber: d.DocumentNumber,
				FileMime:       d.FileMime,
				FileSize:       d.FileSize,
			}
			if _, err := documents.CreateWithVerification(ctx, doc); err != nil {
				return describe(err, fmt.Sprintf("%s document for %s", d.DocumentType, d.OwnerRef))
			}
			summary.Documents++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Seed workbook imported", map[string]interface{}{
		"admins":    summary.Admins,
		"drivers":   summary.Drivers,
		"vehicles":  summary.Vehicles,
		"documents": summary.Documents,
	})
	return summary, nil
}

// describe turns a store error into the same code and message the API would
// show, keeping the driver error wrapped for errors.Is.
func describe(err error, subject string) error {
	info := apperrors.ParseError(err, subject)
	return fmt.Errorf("%s: %s [%s]: %w", subject, info.Message, info.Code, err)
}
