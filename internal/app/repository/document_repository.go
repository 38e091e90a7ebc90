package repository

import (
	"context"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/ikkim/ridehail-backend/pkg/logger"
	"gorm.io/gorm"
)

// DocumentRepository only creates documents; they are immutable afterwards.
type DocumentRepository interface {
	CreateWithVerification(ctx context.Context, document *model.Document) (*model.Verification, error)
}

type documentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// CreateWithVerification stores the document and its pending verification together.
func (r *documentRepository) CreateWithVerification(ctx context.Context, document *model.Document) (*model.Verification, error) {
	var verification *model.Verification
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(document).Error; err != nil {
			return err
		}
		verification = &model.Verification{
			DocumentID: document.ID,
			Status:     model.VerificationStatusPending,
			Version:    1,
		}
		return tx.Create(verification).Error
	})
	if err != nil {
		logger.Error("Failed to create document in database", err, map[string]interface{}{
			"owner_type":    document.OwnerType,
			"owner_id":      document.OwnerID,
			"document_type": document.DocumentType,
		})
		return nil, err
	}
	return verification, nil
}
