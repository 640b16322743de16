package models

import (
	"strconv"
	"time"
)

// TurnRecord is the persisted, billable record of one turn. Identity is
// sessionID-chatID where chatID is a strictly increasing per-session index.
type TurnRecord struct {
	ID                string     `json:"id"`
	ChatID            int        `json:"chatId"`
	UserID            string     `json:"userId"`
	SessionID         string     `json:"sessionId"`
	Prompt            string     `json:"prompt"`
	RephrasedPrompt   string     `json:"rephrasedPrompt"`
	Response          string     `json:"response"`
	SQLCode           string     `json:"sqlCode"`
	Visualization     *Chart     `json:"visualization"`
	Followups         []Followup `json:"followups"`
	ViewVisualization bool       `json:"viewVisualization"`
	ShowSQL           bool       `json:"showSql"`
	ShowVisualization bool       `json:"showVisualization"`
	InputTokens       int        `json:"total_input_tokens"`
	OutputTokens      int        `json:"total_output_tokens"`
	InputCost         float64    `json:"input_cost"`
	OutputCost        float64    `json:"output_cost"`
	TotalCost         float64    `json:"total_cost"`
	ModelName         string     `json:"modelname"`
	DataSource        string     `json:"dataSource"`
	ApplicationName   string     `json:"applicationName"`
	InsertedAt        time.Time  `json:"insertedAt"`
}

// TurnKey builds the stored identity for a turn record.
func TurnKey(sessionID string, chatID int) string {
	return sessionID + "-" + strconv.Itoa(chatID)
}

// PriorTurn is the slice of a stored turn that feeds later prompts as
// conversation context.
type PriorTurn struct {
	ChatID          int    `json:"chatId"`
	Prompt          string `json:"prompt"`
	RephrasedPrompt string `json:"rephrasedPrompt"`
	SQLCode         string `json:"sqlCode"`
	Response        string `json:"response"`
}
