package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/confirmations"
	"github.com/gin-gonic/gin"
)

type confirmationRequest struct {
	FullName     *string `json:"nombreCompleto"`
	Attendance   *string `json:"asistencia"`
	Message      *string `json:"mensaje"`
	InvitationID *string `json:"invitacion"`
}

func (r confirmationRequest) fields() confirmations.Fields {
	return confirmations.Fields{
		FullName:     r.FullName,
		Attendance:   r.Attendance,
		Message:      r.Message,
		InvitationID: r.InvitationID,
	}
}

// confirmationPayload shadows the embedded invitacion id so a listing can
// carry either the id or the expanded invitation under the same key.
type confirmationPayload struct {
	confirmations.Confirmation
	Invitation any `json:"invitacion"`
}

func newConfirmationPayloads(found []confirmations.Confirmation, expanded bool) []confirmationPayload {
	payloads := make([]confirmationPayload, len(found))
	for i, confirmation := range found {
		payloads[i] = confirmationPayload{
			Confirmation: confirmation,
			Invitation:   invitationRef(confirmation.InvitationID, expanded, confirmation.Invitation),
		}
	}
	return payloads
}

func (h *httpHandler) listConfirmations(c *gin.Context) {
	opts := confirmations.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.confirmations.List(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConfirmationPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) listConfirmationsByInvitation(c *gin.Context) {
	opts := confirmations.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.confirmations.ListByInvitation(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newConfirmationPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) getConfirmation(c *gin.Context) {
	confirmation, err := h.confirmations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

func (h *httpHandler) createConfirmation(c *gin.Context) {
	var request confirmationRequest
	if !h.bindJSON(c, "confirmations.create", &request) {
		return
	}
	confirmation, err := h.confirmations.Create(c.Request.Context(), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publishChange(confirmation.InvitationID, confirmations.TableName, confirmation.ID, ActionCreated)
	c.JSON(http.StatusCreated, confirmation)
}

func (h *httpHandler) updateConfirmation(c *gin.Context) {
	var request confirmationRequest
	if !h.bindJSON(c, "confirmations.update", &request) {
		return
	}
	confirmation, err := h.confirmations.Update(c.Request.Context(), c.Param("id"), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publishChange(confirmation.InvitationID, confirmations.TableName, confirmation.ID, ActionUpdated)
	c.JSON(http.StatusOK, confirmation)
}

func (h *httpHandler) deleteConfirmation(c *gin.Context) {
	ctx := c.Request.Context()
	existing, lookupErr := h.confirmations.Get(ctx, c.Param("id"))
	if err := h.confirmations.Delete(ctx, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	if lookupErr == nil {
		h.publishChange(existing.InvitationID, confirmations.TableName, existing.ID, ActionDeleted)
	}
	respondDeleted(c, "confirmation deleted")
}
