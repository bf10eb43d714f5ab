package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rossfreedman/rally/internal/http/middleware"
	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/service"
	"github.com/rossfreedman/rally/internal/web"
)

type mockEscrowService struct {
	mock.Mock
}

func (m *mockEscrowService) CreateEscrowSession(ctx context.Context, in service.CreateEscrowInput) (*service.CreateEscrowResult, error) {
	args := m.Called(ctx, in)
	res, _ := args.Get(0).(*service.CreateEscrowResult)
	return res, args.Error(1)
}

func (m *mockEscrowService) SubmitRecipientLineup(ctx context.Context, token, contact, lineup string) (*service.SubmitResult, error) {
	args := m.Called(ctx, token, contact, lineup)
	res, _ := args.Get(0).(*service.SubmitResult)
	return res, args.Error(1)
}

func (m *mockEscrowService) GetEscrowDetails(ctx context.Context, token, contact string) (*service.EscrowDisclosure, error) {
	args := m.Called(ctx, token, contact)
	res, _ := args.Get(0).(*service.EscrowDisclosure)
	return res, args.Error(1)
}

func (m *mockEscrowService) ListMyEscrows(ctx context.Context, userID int64) ([]service.EscrowSummary, error) {
	args := m.Called(ctx, userID)
	res, _ := args.Get(0).([]service.EscrowSummary)
	return res, args.Error(1)
}

type mockSavedLineupService struct {
	mock.Mock
}

func (m *mockSavedLineupService) SaveLineup(ctx context.Context, userID, teamID int64, name, data string) (*models.SavedLineup, bool, error) {
	args := m.Called(ctx, userID, teamID, name, data)
	res, _ := args.Get(0).(*models.SavedLineup)
	return res, args.Bool(1), args.Error(2)
}

func (m *mockSavedLineupService) ListSavedLineups(ctx context.Context, userID int64, teamID *int64) ([]models.SavedLineup, error) {
	args := m.Called(ctx, userID, teamID)
	res, _ := args.Get(0).([]models.SavedLineup)
	return res, args.Error(1)
}

func (m *mockSavedLineupService) GetSavedLineup(ctx context.Context, userID, id int64) (*models.SavedLineup, error) {
	args := m.Called(ctx, userID, id)
	res, _ := args.Get(0).(*models.SavedLineup)
	return res, args.Error(1)
}

func (m *mockSavedLineupService) UpdateSavedLineup(ctx context.Context, userID, id int64, name, data *string) (*models.SavedLineup, error) {
	args := m.Called(ctx, userID, id, name, data)
	res, _ := args.Get(0).(*models.SavedLineup)
	return res, args.Error(1)
}

func (m *mockSavedLineupService) DeleteSavedLineup(ctx context.Context, userID, id int64) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

// newTestRouter returns an engine with the page templates loaded. A
// non-zero userID is injected as if AuthMiddleware had run.
func newTestRouter(t *testing.T, userID int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	pages, err := web.Templates()
	require.NoError(t, err)
	r.SetHTMLTemplate(pages)

	if userID != 0 {
		r.Use(func(c *gin.Context) {
			c.Set(middleware.ContextUserIDKey, userID)
			c.Next()
		})
	}
	return r
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, path, nil)
	} else {
		req, _ = http.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
