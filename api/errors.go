package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/enricher/conversation"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/reembed"
	"github.com/poiesic/enricher/search"
	"github.com/poiesic/enricher/storage"
	"github.com/poiesic/enricher/translation"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{storage.ErrNotFound, http.StatusNotFound},
	{core.ErrUnknownModel, http.StatusNotFound},
	{storage.ErrConflict, http.StatusConflict},
	{core.ErrInvalidRecord, http.StatusBadRequest},
	{core.ErrInvalidMessage, http.StatusBadRequest},
	{core.ErrEmptyTable, http.StatusBadRequest},
	{core.ErrEmptyKey, http.StatusBadRequest},
	{core.ErrEmptyContent, http.StatusBadRequest},
	{core.ErrInvalidRole, http.StatusBadRequest},
	{search.ErrEmptyQuery, http.StatusBadRequest},
	{translation.ErrNoSourceLocale, http.StatusBadRequest},
	{reembed.ErrEmbedderDisabled, http.StatusServiceUnavailable},
	{translation.ErrNoTranslator, http.StatusServiceUnavailable},
	{conversation.ErrNoChatModel, http.StatusServiceUnavailable},
}

func statusOf(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

// fail writes err as a JSON error. Internal errors are logged and hidden.
func (s *Server) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
