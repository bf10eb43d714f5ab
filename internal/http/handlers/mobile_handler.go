package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/logger"
	"github.com/rossfreedman/rally/internal/pkg/apperror"
	"github.com/rossfreedman/rally/internal/service"
	"github.com/rossfreedman/rally/internal/web"
)

const genericPageError = "Something went wrong loading this lineup escrow. Please try again."

// MobileHandler renders the escrow pages opened from SMS and email links.
type MobileHandler struct {
	escrows EscrowService
}

func NewMobileHandler(escrows EscrowService) *MobileHandler {
	return &MobileHandler{escrows: escrows}
}

type escrowPage struct {
	Escrow             *service.EscrowDetails
	Token              string
	Contact            string
	ViewURL            string
	InitiatorLabel     string
	RecipientLabel     string
	RecipientLineup    string
	HasRecipientLineup bool
	Visible            bool
}

// ViewPath is the results page of an escrow for the given contact.
func ViewPath(token, contact string) string {
	return "/mobile/lineup-escrow-view/" + url.PathEscape(token) + "?contact=" + url.QueryEscape(contact)
}

// Opposing handles GET /mobile/lineup-escrow-opposing/:token. Once both
// lineups are visible it redirects to the view page.
func (h *MobileHandler) Opposing(c *gin.Context) {
	token, contact := c.Param("token"), c.Query("contact")

	d, err := h.escrows.GetEscrowDetails(c.Request.Context(), token, contact)
	if err != nil {
		h.renderError(c, err)
		return
	}

	if d.BothLineupsVisible {
		c.Redirect(http.StatusFound, ViewPath(token, contact))
		return
	}

	c.HTML(http.StatusOK, web.OpposingPage, newEscrowPage(d, token, contact))
}

// View handles GET /mobile/lineup-escrow-view/:token.
func (h *MobileHandler) View(c *gin.Context) {
	token, contact := c.Param("token"), c.Query("contact")

	d, err := h.escrows.GetEscrowDetails(c.Request.Context(), token, contact)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, web.ViewPage, newEscrowPage(d, token, contact))
}

// Recover renders the error page for panics raised by the mobile routes.
func (h *MobileHandler) Recover() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Entry().WithFields(logrus.Fields{
					"panic": fmt.Sprint(r),
					"path":  c.FullPath(),
					"stack": string(debug.Stack()),
				}).Error("mobile: panic while rendering page")

				c.Abort()
				c.HTML(http.StatusInternalServerError, web.ErrorPage, gin.H{"Message": genericPageError})
			}
		}()
		c.Next()
	}
}

func (h *MobileHandler) renderError(c *gin.Context, err error) {
	// Domain failures all share 400; only unexpected errors get 500.
	status := http.StatusInternalServerError
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.HTTPStatus < http.StatusInternalServerError {
		status = http.StatusBadRequest
	}

	message := apperror.PublicMessage(err)
	if status >= http.StatusInternalServerError {
		logger.Entry().WithError(err).Error("mobile: escrow page failed")
		message = genericPageError
	}

	c.HTML(status, web.ErrorPage, gin.H{"Message": message})
}

func newEscrowPage(d *service.EscrowDisclosure, token, contact string) escrowPage {
	e := d.Escrow
	p := escrowPage{
		Escrow:         e,
		Token:          token,
		Contact:        contact,
		ViewURL:        ViewPath(token, contact),
		InitiatorLabel: e.InitiatorName,
		RecipientLabel: e.RecipientName,
		Visible:        d.BothLineupsVisible,
	}
	if e.InitiatorTeamName != nil {
		p.InitiatorLabel = *e.InitiatorTeamName
	}
	if e.RecipientTeamName != nil {
		p.RecipientLabel = *e.RecipientTeamName
	}
	if e.RecipientLineup != nil {
		p.RecipientLineup = *e.RecipientLineup
		p.HasRecipientLineup = true
	}
	return p
}
