package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rossfreedman/rally/internal/dto"
	"github.com/rossfreedman/rally/internal/http/handlers/common"
	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/service"
)

// EscrowService is the part of service.EscrowService used over HTTP.
type EscrowService interface {
	CreateEscrowSession(ctx context.Context, in service.CreateEscrowInput) (*service.CreateEscrowResult, error)
	SubmitRecipientLineup(ctx context.Context, token, recipientContact, recipientLineup string) (*service.SubmitResult, error)
	GetEscrowDetails(ctx context.Context, token, viewerContact string) (*service.EscrowDisclosure, error)
	ListMyEscrows(ctx context.Context, userID int64) ([]service.EscrowSummary, error)
}

// EscrowHandler serves the lineup escrow JSON API. Every failure is a 400
// with {success:false, error}.
type EscrowHandler struct {
	escrows EscrowService
}

func NewEscrowHandler(escrows EscrowService) *EscrowHandler {
	return &EscrowHandler{escrows: escrows}
}

// Create handles POST /api/lineup-escrow/create.
func (h *EscrowHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.escrows.CreateEscrowSession(c.Request.Context(), service.CreateEscrowInput{
		InitiatorUserID:  userID,
		RecipientName:    req.RecipientName,
		RecipientContact: req.RecipientContact,
		ContactType:      models.ContactType(req.ContactType),
		InitiatorLineup:  req.InitiatorLineup,
		Subject:          req.Subject,
		MessageBody:      req.MessageBody,
		InitiatorTeamID:  req.InitiatorTeamID,
		RecipientTeamID:  req.RecipientTeamID,
		ExpiresInHours:   req.ExpiresInHours,
	})
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.CreateEscrowResponse{Success: true, CreateEscrowResult: result})
}

// Submit handles POST /api/lineup-escrow/submit.
func (h *EscrowHandler) Submit(c *gin.Context) {
	var req dto.SubmitLineupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}
	if req.EscrowToken == "" || req.RecipientContact == "" {
		common.RespondBadRequest(c, "escrow_token and recipient_contact are required")
		return
	}

	result, err := h.escrows.SubmitRecipientLineup(c.Request.Context(), req.EscrowToken, req.RecipientContact, req.RecipientLineup)
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SubmitLineupResponse{Success: true, SubmitResult: result})
}

// View handles GET /api/lineup-escrow/view/:token?contact=.
func (h *EscrowHandler) View(c *gin.Context) {
	d, err := h.escrows.GetEscrowDetails(c.Request.Context(), c.Param("token"), c.Query("contact"))
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.EscrowViewResponse{
		Success:            true,
		EscrowData:         d.Escrow,
		BothLineupsVisible: d.BothLineupsVisible,
	})
}

// ListMine handles GET /api/lineup-escrow/my.
func (h *EscrowHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	escrows, err := h.escrows.ListMyEscrows(c.Request.Context(), userID)
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.MyEscrowsResponse{Success: true, Escrows: escrows})
}
