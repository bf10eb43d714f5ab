package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
)

func TestSavedLineupHandler_Save_AcceptsStringOrRawJSON(t *testing.T) {
	lineups := new(mockSavedLineupService)
	h := NewSavedLineupHandler(lineups)
	r := newTestRouter(t, 5)
	r.POST("/api/saved-lineups", h.Save)

	lineups.On("SaveLineup", mock.Anything, int64(5), int64(9), "Week 1", "Court 1: A & B").
		Return(&models.SavedLineup{ID: 1, LineupName: "Week 1"}, true, nil).Once()
	lineups.On("SaveLineup", mock.Anything, int64(5), int64(9), "Week 1", `{"courts":[]}`).
		Return(&models.SavedLineup{ID: 1, LineupName: "Week 1"}, false, nil).Once()

	w := doRequest(r, http.MethodPost, "/api/saved-lineups",
		`{"team_id":9,"lineup_name":"Week 1","lineup_data":"Court 1: A & B"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"created":true`)

	w = doRequest(r, http.MethodPost, "/api/saved-lineups",
		`{"team_id":9,"lineup_name":"Week 1","lineup_data":{"courts":[]}}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"created":false`)

	lineups.AssertExpectations(t)
}

func TestSavedLineupHandler_Save_RequiresData(t *testing.T) {
	lineups := new(mockSavedLineupService)
	h := NewSavedLineupHandler(lineups)
	r := newTestRouter(t, 5)
	r.POST("/api/saved-lineups", h.Save)

	w := doRequest(r, http.MethodPost, "/api/saved-lineups", `{"team_id":9,"lineup_name":"Week 1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"lineup_data is required"}`, w.Body.String())
}

func TestSavedLineupHandler_List(t *testing.T) {
	lineups := new(mockSavedLineupService)
	h := NewSavedLineupHandler(lineups)
	r := newTestRouter(t, 5)
	r.GET("/api/saved-lineups", h.List)

	team := int64(9)
	lineups.On("ListSavedLineups", mock.Anything, int64(5), &team).Return(nil, nil)

	w := doRequest(r, http.MethodGet, "/api/saved-lineups?team_id=9", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"lineups":[]}`, w.Body.String())

	w = doRequest(r, http.MethodGet, "/api/saved-lineups?team_id=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavedLineupHandler_ForeignLineupLooksMissing(t *testing.T) {
	lineups := new(mockSavedLineupService)
	h := NewSavedLineupHandler(lineups)
	r := newTestRouter(t, 6)
	r.PUT("/api/saved-lineups/:id", h.Update)
	r.DELETE("/api/saved-lineups/:id", h.Delete)

	lineups.On("UpdateSavedLineup", mock.Anything, int64(6), int64(1), (*string)(nil), mock.AnythingOfType("*string")).
		Return(nil, apperror.ErrSavedLineupNotFound)
	lineups.On("DeleteSavedLineup", mock.Anything, int64(6), int64(1)).Return(apperror.ErrSavedLineupNotFound)

	w := doRequest(r, http.MethodPut, "/api/saved-lineups/1", `{"lineup_data":"hijacked"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"saved lineup not found"}`, w.Body.String())

	w = doRequest(r, http.MethodDelete, "/api/saved-lineups/1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"saved lineup not found"}`, w.Body.String())

	w = doRequest(r, http.MethodDelete, "/api/saved-lineups/0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavedLineupHandler_UpdateDelete_IDFromPathQueryOrBody(t *testing.T) {
	lineups := new(mockSavedLineupService)
	h := NewSavedLineupHandler(lineups)
	r := newTestRouter(t, 5)
	r.PUT("/api/saved-lineups", h.Update)
	r.PUT("/api/saved-lineups/:id", h.Update)
	r.DELETE("/api/saved-lineups", h.Delete)
	r.DELETE("/api/saved-lineups/:id", h.Delete)

	renamed := &models.SavedLineup{ID: 7, LineupName: "Playoffs"}
	lineups.On("UpdateSavedLineup", mock.Anything, int64(5), int64(7), mock.AnythingOfType("*string"), (*string)(nil)).
		Return(renamed, nil).Times(3)
	lineups.On("DeleteSavedLineup", mock.Anything, int64(5), int64(7)).Return(nil).Times(3)

	for _, path := range []string{"/api/saved-lineups/7", "/api/saved-lineups?lineup_id=7"} {
		w := doRequest(r, http.MethodPut, path, `{"lineup_name":"Playoffs"}`)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), `"lineup_name":"Playoffs"`)

		w = doRequest(r, http.MethodDelete, path, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := doRequest(r, http.MethodPut, "/api/saved-lineups", `{"lineup_id":7,"lineup_name":"Playoffs"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/saved-lineups", `{"lineup_id":7}`)
	assert.Equal(t, http.StatusOK, w.Code)

	lineups.AssertExpectations(t)
}

func TestSavedLineupHandler_UpdateDelete_RequireLineupID(t *testing.T) {
	lineups := new(mockSavedLineupService)
	h := NewSavedLineupHandler(lineups)
	r := newTestRouter(t, 5)
	r.PUT("/api/saved-lineups", h.Update)
	r.DELETE("/api/saved-lineups", h.Delete)

	w := doRequest(r, http.MethodPut, "/api/saved-lineups", `{"lineup_name":"Playoffs"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"lineup_id is required"}`, w.Body.String())

	w = doRequest(r, http.MethodDelete, "/api/saved-lineups", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(r, http.MethodDelete, "/api/saved-lineups?lineup_id=x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	lineups.AssertNotCalled(t, "UpdateSavedLineup", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	lineups.AssertNotCalled(t, "DeleteSavedLineup", mock.Anything, mock.Anything, mock.Anything)
}

func TestSavedLineupHandler_Unauthorized(t *testing.T) {
	h := NewSavedLineupHandler(new(mockSavedLineupService))
	r := newTestRouter(t, 0)
	r.GET("/api/saved-lineups", h.List)

	w := doRequest(r, http.MethodGet, "/api/saved-lineups", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
