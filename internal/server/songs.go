package server

import (
	"net/http"

	"github.com/MarcoPoloResearchLab/wedding/backend/internal/songs"
	"github.com/gin-gonic/gin"
)

type songRequest struct {
	Name         *string `json:"nombre"`
	Artist       *string `json:"artista"`
	Link         *string `json:"link"`
	InvitationID *string `json:"invitacion"`
}

func (r songRequest) fields() songs.Fields {
	return songs.Fields{
		Name:         r.Name,
		Artist:       r.Artist,
		Link:         r.Link,
		InvitationID: r.InvitationID,
	}
}

type songPayload struct {
	songs.Song
	Invitation any `json:"invitacion"`
}

func newSongPayloads(found []songs.Song, expanded bool) []songPayload {
	payloads := make([]songPayload, len(found))
	for i, song := range found {
		payloads[i] = songPayload{
			Song:       song,
			Invitation: invitationRef(song.InvitationID, expanded, song.Invitation),
		}
	}
	return payloads
}

func (h *httpHandler) listSongs(c *gin.Context) {
	opts := songs.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.songs.List(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSongPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) listSongsByInvitation(c *gin.Context) {
	opts := songs.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.songs.ListByInvitation(c.Request.Context(), c.Param("id"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSongPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) searchSongs(c *gin.Context) {
	opts := songs.ListOptions{ExpandInvitation: wantsExpansion(c)}
	found, err := h.songs.Search(c.Request.Context(), c.Query("query"), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newSongPayloads(found, opts.ExpandInvitation))
}

func (h *httpHandler) getSong(c *gin.Context) {
	song, err := h.songs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, song)
}

func (h *httpHandler) createSong(c *gin.Context) {
	var request songRequest
	if !h.bindJSON(c, "songs.create", &request) {
		return
	}
	song, err := h.songs.Create(c.Request.Context(), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publishChange(song.InvitationID, songs.TableName, song.ID, ActionCreated)
	c.JSON(http.StatusCreated, song)
}

func (h *httpHandler) updateSong(c *gin.Context) {
	var request songRequest
	if !h.bindJSON(c, "songs.update", &request) {
		return
	}
	song, err := h.songs.Update(c.Request.Context(), c.Param("id"), request.fields())
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.publishChange(song.InvitationID, songs.TableName, song.ID, ActionUpdated)
	c.JSON(http.StatusOK, song)
}

func (h *httpHandler) deleteSong(c *gin.Context) {
	ctx := c.Request.Context()
	existing, lookupErr := h.songs.Get(ctx, c.Param("id"))
	if err := h.songs.Delete(ctx, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	if lookupErr == nil {
		h.publishChange(existing.InvitationID, songs.TableName, existing.ID, ActionDeleted)
	}
	respondDeleted(c, "song deleted")
}
