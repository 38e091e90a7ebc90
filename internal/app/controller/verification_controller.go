package controller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/ridehail-backend/internal/app/service"
	apperrors "github.com/ikkim/ridehail-backend/internal/errors"
	"github.com/ikkim/ridehail-backend/internal/middleware"
	ws "github.com/ikkim/ridehail-backend/internal/websocket"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// DocumentPresigner issues short-lived links to private document objects.
type DocumentPresigner interface {
	PresignDocumentURL(ctx context.Context, documentID uint) (string, error)
}

type VerificationController struct {
	verificationService service.VerificationService
	presigner           DocumentPresigner
	hub                 *ws.Hub
	upgrader            *websocket.Upgrader
}

func NewVerificationController(
	verificationService service.VerificationService,
	presigner DocumentPresigner,
	hub *ws.Hub,
	allowedOrigins []string,
) *VerificationController {
	return &VerificationController{
		verificationService: verificationService,
		presigner:           presigner,
		hub:                 hub,
		upgrader:            ws.NewUpgrader(allowedOrigins),
	}
}

type UpdateVerificationStatusRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejectionReason"`
	ExpectedVersion *uint   `json:"expectedVersion"`
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ListPending returns the review queue, newest submission first.
// GET /api/v1/verifications/pending
func (ctrl *VerificationController) ListPending(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	views, err := ctrl.verificationService.ListPending(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch pending verifications", err)
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to fetch pending verifications")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
	})
}

// ListHistory returns decided verifications, most recently reviewed first.
// GET /api/v1/verifications/history
func (ctrl *VerificationController) ListHistory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	views, err := ctrl.verificationService.ListHistory(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch verification history", err)
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to fetch verification history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
	})
}

// ExportHistory streams the history queue as an XLSX workbook.
// GET /api/v1/verifications/history/export
func (ctrl *VerificationController) ExportHistory(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	views, err := ctrl.verificationService.ListHistory(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch verification history for export", err)
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to export verification history")
		return
	}

	var buf bytes.Buffer
	if err := service.WriteHistoryWorkbook(&buf, views); err != nil {
		log.Error("Failed to render verification history workbook", err)
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to export verification history")
		return
	}

	filename := fmt.Sprintf("verification-history-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())

	log.Info("Verification history exported", map[string]interface{}{
		"rows": len(views),
	})
}

// ListEntities returns every driver and vehicle with their verification flags.
// GET /api/v1/verifications/entities
func (ctrl *VerificationController) ListEntities(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	listing, err := ctrl.verificationService.ListEntities(c.Request.Context())
	if err != nil {
		log.Error("Failed to fetch verification entities", err)
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to fetch entities")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    listing,
	})
}

// GetEntityVerifications
// GET /api/v1/verifications/entity/:entityType/:entityId
func (ctrl *VerificationController) GetEntityVerifications(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	entityType := c.Param("entityType")
	entityID, ok := parseIDParam(c, "entityId")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid entity ID")
		return
	}

	result, err := ctrl.verificationService.GetEntityVerifications(c.Request.Context(), entityType, entityID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEntityType):
			apperrors.BadRequest(c, apperrors.VerificationInvalidEntityType, "Invalid entity type")
		case errors.Is(err, service.ErrEntityNotFound):
			apperrors.NotFound(c, apperrors.VerificationEntityNotFound, "Entity not found")
		default:
			log.Error("Failed to fetch entity verifications", err, map[string]interface{}{
				"entity_type": entityType,
				"entity_id":   entityID,
			})
			apperrors.InternalError(c, apperrors.InternalServerError, "Failed to fetch entity verifications")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// UpdateStatus applies a reviewer decision and cascades it to the owner flag.
// PATCH /api/v1/verifications/:verificationId/status
func (ctrl *VerificationController) UpdateStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	verificationID, ok := parseIDParam(c, "verificationId")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid verification ID")
		return
	}

	var req UpdateVerificationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid verification status request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.RespondWithValidationError(c, map[string]string{
			"body": "must be a JSON object with a status field",
		})
		return
	}

	input := service.UpdateStatusInput{
		Status:          req.Status,
		RejectionReason: req.RejectionReason,
		ExpectedVersion: req.ExpectedVersion,
	}
	if reviewerID, ok := middleware.GetUserID(c); ok {
		input.ReviewerID = &reviewerID
	}

	result, err := ctrl.verificationService.UpdateVerificationStatus(c.Request.Context(), verificationID, input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			apperrors.BadRequest(c, apperrors.VerificationInvalidStatus, "Invalid status")
		case errors.Is(err, service.ErrRejectionReasonRequired):
			apperrors.BadRequest(c, apperrors.VerificationReasonRequired, "Rejection reason is required")
		case errors.Is(err, service.ErrVerificationNotFound):
			apperrors.NotFound(c, apperrors.VerificationNotFound, "Verification not found")
		case errors.Is(err, service.ErrVerificationConflict):
			apperrors.Conflict(c, apperrors.VerificationConflict, "Verification was modified by another reviewer")
		default:
			log.Error("Failed to update verification status", err, map[string]interface{}{
				"verification_id": verificationID,
				"status":          req.Status,
			})
			apperrors.InternalError(c, apperrors.VerificationUpdateFailed, "Failed to update verification status")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification status updated",
		"data":    result,
	})
}

// Consistency reports owner flags that disagree with their verification.
// GET /api/v1/verifications/consistency
func (ctrl *VerificationController) Consistency(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	report, err := ctrl.verificationService.AuditFlagConsistency(c.Request.Context())
	if err != nil {
		log.Error("Failed to audit verification flags", err)
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to audit verification flags")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    report,
	})
}

// DocumentURL returns a presigned link for a private document object.
// GET /api/v1/verifications/documents/:documentId/url
func (ctrl *VerificationController) DocumentURL(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	documentID, ok := parseIDParam(c, "documentId")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid document ID")
		return
	}

	if _, err := ctrl.verificationService.GetDocument(c.Request.Context(), documentID); err != nil {
		if errors.Is(err, service.ErrDocumentNotFound) {
			apperrors.NotFound(c, apperrors.VerificationDocumentNotFound, "Document not found")
			return
		}
		log.Error("Failed to fetch document", err, map[string]interface{}{
			"document_id": documentID,
		})
		apperrors.InternalError(c, apperrors.InternalServerError, "Failed to create document link")
		return
	}

	url, err := ctrl.presigner.PresignDocumentURL(c.Request.Context(), documentID)
	if err != nil {
		log.Error("Failed to presign document URL", err, map[string]interface{}{
			"document_id": documentID,
		})
		apperrors.InternalError(c, apperrors.InternalExternalAPI, "Failed to create document link")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"document_id": documentID,
			"url":         url,
		},
	})
}

// Feed upgrades to a websocket that streams status-change events.
// GET /api/v1/ws/verifications
func (ctrl *VerificationController) Feed(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, userID)
	if !ctrl.hub.Register(client) {
		// hub is shutting down; the write pump sends a close frame and hangs up
		log.Warn("Verification feed closed, rejecting connection", map[string]interface{}{
			"user_id": userID,
		})
		go client.WritePump()
		return
	}

	go client.WritePump()
	go client.ReadPump()

	log.Info("Verification feed connection established", map[string]interface{}{
		"user_id": userID,
	})
}
