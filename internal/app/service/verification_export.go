package service

import (
	"fmt"
	"io"
	"time"

	"github.com/ikkim/ridehail-backend/internal/app/model"
	"github.com/xuri/excelize/v2"
)

const historySheet = "History"

var historyColumns = []string{
	"Verification ID", "Document ID", "Owner Type", "Owner ID", "Document Type",
	"Document Number", "Status", "Rejection Reason", "Submitted At", "Reviewed At", "Version", "Document URL",
}

// WriteHistoryWorkbook renders decided verifications as a single-sheet XLSX,
// one row per verification in the order given.
func WriteHistoryWorkbook(w io.Writer, views []model.VerificationView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), historySheet); err != nil {
		return err
	}

	header := make([]interface{}, len(historyColumns))
	for i, col := range historyColumns {
		header[i] = col
	}
	if err := f.SetSheetRow(historySheet, "A1", &header); err != nil {
		return err
	}

	for i, v := range views {
		reason, reviewedAt := "", ""
		if v.RejectionReason != nil {
			reason = *v.RejectionReason
		}
		if v.ReviewedAt != nil {
			reviewedAt = v.ReviewedAt.UTC().Format(time.RFC3339)
		}

		row := []interface{}{
			v.ID, v.DocumentID, string(v.OwnerType), v.OwnerID, string(v.DocumentType),
			v.DocumentNumber, string(v.Status), reason, v.SubmittedAt.UTC().Format(time.RFC3339), reviewedAt, v.Version, v.DocumentURL,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return fmt.Errorf("write history row %d: %w", v.ID, err)
		}
	}

	if err := f.SetPanes(historySheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}
