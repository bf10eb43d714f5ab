package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rossfreedman/rally/internal/dto"
	"github.com/rossfreedman/rally/internal/http/handlers/common"
	"github.com/rossfreedman/rally/internal/models"
)

// SavedLineupService is the part of service.SavedLineupService used over HTTP.
type SavedLineupService interface {
	SaveLineup(ctx context.Context, userID, teamID int64, name, data string) (*models.SavedLineup, bool, error)
	ListSavedLineups(ctx context.Context, userID int64, teamID *int64) ([]models.SavedLineup, error)
	GetSavedLineup(ctx context.Context, userID, id int64) (*models.SavedLineup, error)
	UpdateSavedLineup(ctx context.Context, userID, id int64, name, data *string) (*models.SavedLineup, error)
	DeleteSavedLineup(ctx context.Context, userID, id int64) error
}

// SavedLineupHandler serves /api/saved-lineups for the signed-in captain.
type SavedLineupHandler struct {
	lineups SavedLineupService
}

func NewSavedLineupHandler(lineups SavedLineupService) *SavedLineupHandler {
	return &SavedLineupHandler{lineups: lineups}
}

// Save handles POST /api/saved-lineups.
func (h *SavedLineupHandler) Save(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.SaveLineupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}
	data, ok := dto.LineupDataText(req.LineupData)
	if !ok {
		common.RespondBadRequest(c, "lineup_data is required")
		return
	}

	l, created, err := h.lineups.SaveLineup(c.Request.Context(), userID, req.TeamID, req.LineupName, data)
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.SavedLineupResponse{Success: true, Lineup: l, Created: &created})
}

// List handles GET /api/saved-lineups?team_id=.
func (h *SavedLineupHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	teamID, err := common.ParseOptionalIDQuery(c, "team_id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	lineups, err := h.lineups.ListSavedLineups(c.Request.Context(), userID, teamID)
	if err != nil {
		common.RespondFailure(c, err)
		return
	}
	if lineups == nil {
		lineups = []models.SavedLineup{}
	}

	c.JSON(http.StatusOK, dto.SavedLineupsResponse{Success: true, Lineups: lineups})
}

// Get handles GET /api/saved-lineups/:id.
func (h *SavedLineupHandler) Get(c *gin.Context) {
	userID, id, ok := h.owner(c)
	if !ok {
		return
	}

	l, err := h.lineups.GetSavedLineup(c.Request.Context(), userID, id)
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SavedLineupResponse{Success: true, Lineup: l})
}

// Update handles PUT /api/saved-lineups/:id and PUT /api/saved-lineups
// with lineup_id in the query or body.
func (h *SavedLineupHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateSavedLineupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "invalid request body")
		return
	}

	id, ok := lineupID(c, req.LineupID)
	if !ok {
		return
	}

	var data *string
	if text, present := dto.LineupDataText(req.LineupData); present {
		data = &text
	}

	l, err := h.lineups.UpdateSavedLineup(c.Request.Context(), userID, id, req.LineupName, data)
	if err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SavedLineupResponse{Success: true, Lineup: l})
}

// Delete handles DELETE /api/saved-lineups/:id and DELETE /api/saved-lineups
// with lineup_id in the query or body.
func (h *SavedLineupHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.DeleteSavedLineupRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondBadRequest(c, "invalid request body")
			return
		}
	}

	id, ok := lineupID(c, req.LineupID)
	if !ok {
		return
	}

	if err := h.lineups.DeleteSavedLineup(c.Request.Context(), userID, id); err != nil {
		common.RespondFailure(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: "saved lineup deleted"})
}

func (h *SavedLineupHandler) owner(c *gin.Context) (int64, int64, bool) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return 0, 0, false
	}
	id, ok := lineupID(c, nil)
	if !ok {
		return 0, 0, false
	}
	return userID, id, true
}

// lineupID resolves the target lineup from the path, then ?lineup_id=, then
// the request body. It writes the 400 response itself.
func lineupID(c *gin.Context, fromBody *int64) (int64, bool) {
	if c.Param("id") != "" {
		id, err := common.ParseIDParam(c, "id")
		if err != nil {
			common.RespondBadRequest(c, "invalid saved lineup id")
			return 0, false
		}
		return id, true
	}

	fromQuery, err := common.ParseOptionalIDQuery(c, "lineup_id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return 0, false
	}
	if fromQuery != nil {
		return *fromQuery, true
	}

	if fromBody == nil || *fromBody <= 0 {
		common.RespondBadRequest(c, "lineup_id is required")
		return 0, false
	}
	return *fromBody, true
}
