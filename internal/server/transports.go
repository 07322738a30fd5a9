package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/transports"
	"github.com/gin-gonic/gin"
)

type transportRequest struct {
	FullName     *string `json:"nombreCompleto"`
	Seats        *int    `json:"cantidadLugares"`
	TimeSlot     *string `json:"hora"`
	InvitationID *string `json:"invitacion"`
}

func (r transportRequest) fields() transports.Fields {
	return transports.Fields{
		FullName:     r.FullName,
		Seats:        r.Seats,
		TimeSlot:     r.TimeSlot,
		InvitationID: r.InvitationID,
	}
}

type transportPayload struct {
	transports.Transport
	Invitation any `json:"invitacion"`
}

type capacityPayload struct {
	TimeSlot       string `json:"hora"`
	TotalSeats     int64  `json:"lugaresTotales"`
	TransportCount int64  `json:"cantidadTransportes"`
}

func newTransportPayloads(found []transports.Transport, expanded bool) []transportPayload {
	payloads := make([]transportPayload, len(found))
	for i, transport := range found {
		payloads[i] = transportPayload{
			Transport:  transport,
			Invitation: invitationRef(transport.InvitationID, expanded, transport.Invitation),
		}
	}
	return payloads
}

func (h *httpHandler) listTransports(c *gin.Context) {
	opts := transports.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.transports.List(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransportPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) listTransportsByInvitation(c *gin.Context) {
	opts := transports.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.transports.ListByInvitation(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransportPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) searchTransports(c *gin.Context) {
	opts := transports.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.transports.SearchByName(c.Request.Context(), c.Param("nombre"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransportPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) transportCapacity(c *gin.Context) {
	capacity, err := h.transports.CapacityForTimeSlot(c.Request.Context(), c.Param("hora"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, capacityPayload{
		TimeSlot:       capacity.TimeSlot,
		TotalSeats:     capacity.TotalSeats,
		TransportCount: capacity.TransportCount,
	})
}

func (h *httpHandler) getTransport(c *gin.Context) {
	transport, err := h.transports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, transport)
}

func (h *httpHandler) createTransport(c *gin.Context) {
	var request transportRequest
	if !h.bindJSON(c, "transports.create", &request) {
		return
	}
	transport, err := h.transports.Create(c.Request.Context(), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publishChange(transport.InvitationID, transports.TableName, transport.ID, ActionCreated)
	c.JSON(http.StatusCreated, transport)
}

func (h *httpHandler) updateTransport(c *gin.Context) {
	var request transportRequest
	if !h.bindJSON(c, "transports.update", &request) {
		return
	}
	transport, err := h.transports.Update(c.Request.Context(), c.Param("id"), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publishChange(transport.InvitationID, transports.TableName, transport.ID, ActionUpdated)
	c.JSON(http.StatusOK, transport)
}

func (h *httpHandler) deleteTransport(c *gin.Context) {
	ctx := c.Request.Context()
	existing, lookupErr := h.transports.Get(ctx, c.Param("id"))
	if err := h.transports.Delete(ctx, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	if lookupErr == nil {
		h.publishChange(existing.InvitationID, transports.TableName, existing.ID, ActionDeleted)
	}
	respondDeleted(c, "transport deleted")
}
