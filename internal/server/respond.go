package server

import (
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/apperr"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/MarcoPoloResearchLab/wedding/backend/internal/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const expandInvitation = "invitacion"

type errorPayload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type messagePayload struct {
	Message string `json:"message"`
}

// respondError writes the failure body for err. Storage failures are logged
// here so clients only ever see the generic message.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	appErr := apperr.From(err)
	switch appErr.Kind {
	case apperr.KindStorage:
		h.logger.Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.Error(appErr))
	case apperr.KindInvalidReference, apperr.KindDuplicateKey:
		metrics.IntegrityRejections.WithLabelValues(string(appErr.Kind)).Inc()
	}
	c.JSON(apperr.HTTPStatus(appErr.Kind), errorPayload{Error: appErr.Message, Code: appErr.Code})
}

// bindJSON decodes the request body into target, answering 400 on malformed input.
func (h *httpHandler) bindJSON(c *gin.Context, operation string, target any) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		h.respondError(c, apperr.Validation(operation, "invalid_body", "request body must be a JSON object", err))
		return false
	}
	return true
}

func respondDeleted(c *gin.Context, message string) {
	c.JSON(http.StatusOK, messagePayload{Message: message})
}

// wantsExpansion reports whether ?expand= asks for the invitation documents.
func wantsExpansion(c *gin.Context) bool {
	for _, value := range strings.Split(c.Query("expand"), ",") {
		if strings.EqualFold(strings.TrimSpace(value), expandInvitation) {
			return true
		}
	}
	return false
}

// invitationRef renders the invitacion field: the raw id, or the expanded
// document (null when the reference dangles).
func invitationRef(id string, expanded bool, invitation *invitations.Invitation) any {
	if !expanded {
		return id
	}
	if invitation == nil {
		return nil
	}
	return invitation
}
