package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/enricher"
	"github.com/poiesic/enricher/core"
	"github.com/poiesic/enricher/search"
)

func refOf(c *gin.Context) core.Ref {
	return core.Ref{Table: c.Param("table"), Key: c.Param("key")}
}

// bindOptional binds a JSON body that may be absent.
func bindOptional(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (s *Server) saveRecord(c *gin.Context) {
	var req saveRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ref := refOf(c)
	record := &core.Record{Table: ref.Table, Key: ref.Key, Locale: req.Locale, Fields: req.Fields}
	saved, err := s.enricher.SaveRecord(c.Request.Context(), record, enricher.SaveOptions{
		Sync:    req.Sync,
		Locales: req.Locales,
		Force:   req.Force,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecord(saved))
}

func (s *Server) getRecord(c *gin.Context) {
	record, err := s.enricher.GetRecord(c.Request.Context(), refOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecord(record))
}

func (s *Server) deleteRecord(c *gin.Context) {
	if err := s.enricher.DeleteRecord(c.Request.Context(), refOf(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) indexingStatus(c *gin.Context) {
	state, err := s.enricher.IndexingStatus(c.Request.Context(), refOf(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toStatus(state))
}

func (s *Server) requestIndexing(c *gin.Context) {
	var req indexRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.enricher.RequestIndexing(c.Request.Context(), refOf(c), req.Sync); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": !req.Sync})
}

func (s *Server) requestTranslation(c *gin.Context) {
	var req translateRecordRequest
	if err := bindOptional(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.enricher.RequestTranslation(c.Request.Context(), refOf(c), req.Locales, req.Force, req.Sync); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"queued": !req.Sync})
}

func (s *Server) search(c *gin.Context) {
	var q search.Query
	if err := c.ShouldBindJSON(&q); err != nil {
		badRequest(c, err)
		return
	}
	results, err := s.enricher.Searcher().Search(c.Request.Context(), &q)
	if err != nil {
		s.fail(c, err)
		return
	}
	hits := make([]searchHit, len(results))
	for i, r := range results {
		hits[i] = searchHit{
			Table:      r.Document.Table,
			Key:        r.Document.Key,
			Score:      r.Score,
			Text:       r.Document.Text,
			HasVectors: r.Document.HasVectors,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": hits})
}

func (s *Server) embed(c *gin.Context) {
	var req embedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	vector, err := s.enricher.Embed(c.Request.Context(), req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"embedding": vector, "dimensions": len(vector)})
}

func (s *Server) translate(c *gin.Context) {
	var req translateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	translations, err := s.enricher.Translate(c.Request.Context(), req.Texts, req.From, req.To)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"translations": translations})
}

func (s *Server) createConversation(c *gin.Context) {
	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	conv, err := s.enricher.Conversations().Create(c.Request.Context(), req.UserID, req.Title, req.SystemMessage, req.Metadata)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toConversation(conv))
}

func (s *Server) listConversations(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}
	convs, err := s.enricher.Conversations().List(c.Request.Context(), userID)
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]conversationResponse, len(convs))
	for i, conv := range convs {
		out[i] = toConversation(conv)
	}
	c.JSON(http.StatusOK, gin.H{"conversations": out})
}

func (s *Server) getConversation(c *gin.Context) {
	conv, err := s.enricher.Conversations().Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toConversation(conv))
}

func (s *Server) deleteConversation(c *gin.Context) {
	if err := s.enricher.Conversations().Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listMessages(c *gin.Context) {
	var (
		messages []*core.Message
		err      error
	)
	if role := c.Query("role"); role != "" {
		messages, err = s.enricher.Conversations().MessagesByRole(c.Request.Context(), c.Param("id"), core.Role(role))
	} else {
		messages, err = s.enricher.Conversations().Messages(c.Request.Context(), c.Param("id"))
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]messageResponse, len(messages))
	for i, m := range messages {
		out[i] = toMessage(m)
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

func (s *Server) reply(c *gin.Context) {
	var req replyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := s.enricher.Conversations().Reply(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessage(reply))
}
