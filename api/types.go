package api

import (
	"time"

	"github.com/poiesic/enricher/core"
)

type saveRecordRequest struct {
	Locale  string            `json:"locale"`
	Fields  map[string]string `json:"fields" binding:"required"`
	Sync    bool              `json:"sync"`
	Locales []string          `json:"locales"`
	Force   bool              `json:"force"`
}

type indexRequest struct {
	Sync bool `json:"sync"`
}

type translateRecordRequest struct {
	Locales []string `json:"locales"`
	Force   bool     `json:"force"`
	Sync    bool     `json:"sync"`
}

type embedRequest struct {
	Text string `json:"text" binding:"required"`
}

type translateRequest struct {
	Texts []string `json:"texts" binding:"required,min=1"`
	From  string   `json:"from" binding:"required"`
	To    string   `json:"to" binding:"required"`
}

type createConversationRequest struct {
	UserID        string            `json:"user_id" binding:"required"`
	Title         string            `json:"title"`
	SystemMessage string            `json:"system_message"`
	Metadata      map[string]string `json:"metadata"`
}

type replyRequest struct {
	Content string `json:"content" binding:"required"`
}

type recordResponse struct {
	Table        string                       `json:"table"`
	Key          string                       `json:"key"`
	Locale       string                       `json:"locale,omitempty"`
	Fields       map[string]string            `json:"fields"`
	Translations map[string]map[string]string `json:"translations,omitempty"`
	InsertedAt   time.Time                    `json:"inserted_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

func toRecord(r *core.Record) recordResponse {
	return recordResponse{
		Table:        r.Table,
		Key:          r.Key,
		Locale:       r.Locale,
		Fields:       r.Fields,
		Translations: r.Translations,
		InsertedAt:   r.InsertedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type statusResponse struct {
	Indexing  bool        `json:"indexing"`
	Required  []core.Step `json:"required"`
	Completed []core.Step `json:"completed"`
	Failed    []core.Step `json:"failed"`
	Pending   []core.Step `json:"pending"`
	UpdatedAt *time.Time  `json:"updated_at,omitempty"`
}

func toStatus(state *core.IndexingState) statusResponse {
	if state == nil {
		return statusResponse{Required: []core.Step{}, Completed: []core.Step{}, Failed: []core.Step{}, Pending: []core.Step{}}
	}
	return statusResponse{
		Indexing:  true,
		Required:  state.Required,
		Completed: state.Completed,
		Failed:    state.Failed,
		Pending:   state.Pending(),
		UpdatedAt: &state.UpdatedAt,
	}
}

type searchHit struct {
	Table      string            `json:"table"`
	Key        string            `json:"key"`
	Score      float32           `json:"score"`
	Text       map[string]string `json:"text"`
	HasVectors bool              `json:"has_vectors"`
}

type conversationResponse struct {
	ID            string            `json:"id"`
	UserID        string            `json:"user_id"`
	Title         string            `json:"title"`
	SystemMessage string            `json:"system_message,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	InsertedAt    time.Time         `json:"inserted_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

func toConversation(c *core.Conversation) conversationResponse {
	return conversationResponse{
		ID:            c.ID,
		UserID:        c.UserID,
		Title:         c.Title,
		SystemMessage: c.SystemMessage,
		Metadata:      c.Metadata,
		InsertedAt:    c.InsertedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

type messageResponse struct {
	ID         string            `json:"id"`
	Role       core.Role         `json:"role"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	TokenCount int               `json:"token_count,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

func toMessage(m *core.Message) messageResponse {
	return messageResponse{
		ID:         m.ID,
		Role:       m.Role,
		Content:    m.Content,
		Metadata:   m.Metadata,
		TokenCount: m.TokenCount,
		CreatedAt:  m.CreatedAt,
	}
}
