package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/invitations"
	"github.com/gin-gonic/gin"
)

type invitationRequest struct {
	Title    *string `json:"titulo"`
	Template *string `json:"template"`
	Status   *string `json:"estado"`
	Data     *string `json:"data"`
}

func (r invitationRequest) fields() invitations.Fields {
	return invitations.Fields{
		Title:    r.Title,
		Template: r.Template,
		Status:   r.Status,
		Data:     r.Data,
	}
}

func (h *httpHandler) listInvitations(c *gin.Context) {
	found, err := h.invitations.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *httpHandler) getInvitation(c *gin.Context) {
	invitation, err := h.invitations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

func (h *httpHandler) createInvitation(c *gin.Context) {
	var request invitationRequest
	if !h.bindJSON(c, "invitations.create", &request) {
		return
	}
	invitation, err := h.invitations.Create(c.Request.Context(), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invitation)
}

func (h *httpHandler) updateInvitationByTitle(c *gin.Context) {
	var request invitationRequest
	if !h.bindJSON(c, "invitations.update_by_title", &request) {
		return
	}
	invitation, err := h.invitations.UpdateByTitle(c.Request.Context(), c.Param("titulo"), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

func (h *httpHandler) updateInvitationByID(c *gin.Context) {
	var request invitationRequest
	if !h.bindJSON(c, "invitations.update", &request) {
		return
	}
	invitation, err := h.invitations.UpdateByID(c.Request.Context(), c.Param("id"), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invitation)
}

func (h *httpHandler) deleteInvitation(c *gin.Context) {
	invitationID := c.Param("id")
	if err := h.invitations.DeleteByID(c.Request.Context(), invitationID); err != nil {
		h.respondError(c, err)
		return
	}
	h.retireInvitationFeed(invitationID)
	respondDeleted(c, "invitation deleted")
}

func (h *httpHandler) deleteInvitationByTitle(c *gin.Context) {
	deleted, err := h.invitations.DeleteByTitle(c.Request.Context(), c.Param("titulo"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.retireInvitationFeed(deleted.ID)
	respondDeleted(c, "invitation deleted")
}
