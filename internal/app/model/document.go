package model

import "time"

type OwnerType string

const (
	OwnerDriver  OwnerType = "driver"
	OwnerVehicle OwnerType = "vehicle"
)

// ParseOwnerType validates an owner type coming from outside (path params, imports).
func ParseOwnerType(s string) (OwnerType, bool) {
	switch OwnerType(s) {
	case OwnerDriver, OwnerVehicle:
		return OwnerType(s), true
	}
	return "", false
}

type DocumentType string

const (
	DocumentAadhaar       DocumentType = "aadhaar"
	DocumentPAN           DocumentType = "pan"
	DocumentDriverLicense DocumentType = "driver_license"
	DocumentRC            DocumentType = "rc"
	DocumentPUC           DocumentType = "puc"
	DocumentInsurance     DocumentType = "insurance"
)

func ParseDocumentType(s string) (DocumentType, bool) {
	switch DocumentType(s) {
	case DocumentAadhaar, DocumentPAN, DocumentDriverLicense, DocumentRC, DocumentPUC, DocumentInsurance:
		return DocumentType(s), true
	}
	return "", false
}

// Document is an uploaded KYC artifact. Immutable once created.
type Document struct {
	ID             uint         `gorm:"primarykey" json:"id"`
	OwnerType      OwnerType    `gorm:"type:varchar(20);not null;index:idx_documents_owner" json:"owner_type"`
	OwnerID        uint         `gorm:"not null;index:idx_documents_owner" json:"owner_id"`
	DocumentType   DocumentType `gorm:"type:varchar(30);not null" json:"document_type"`
	DocumentNumber string       `gorm:"type:varchar(50)" json:"document_number"`
	FileMime       string       `gorm:"type:varchar(100)" json:"file_mime"`
	FileSize       int64        `json:"file_size"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (Document) TableName() string {
	return "documents"
}
