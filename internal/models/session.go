package models

import "time"

// Session represents one logical conversation for a user against one data
// source. Identity is userID-sessionID so a user cannot collide with another
// user's session of the same name.
type Session struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	SessionID       string    `json:"sessionId"`
	SessionName     string    `json:"sessionName"`
	DataSource      string    `json:"dataSource"`
	ApplicationName string    `json:"applicationName"`
	InsertedAt      time.Time `json:"insertedAt"`
	LastUpdatedAt   time.Time `json:"lastUpdatedAt"`
	IsFavorite      bool      `json:"isFavorite"`
	IsDeleted       bool      `json:"isDeleted"`
}

// SessionKey builds the stored identity for a session.
func SessionKey(userID, sessionID string) string {
	return userID + "-" + sessionID
}
