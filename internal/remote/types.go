package remote

import (
	"encoding/json"

	"eplayer/internal/subtitle"
)

// UserStats is the per-user usage ledger held by the remote store.
// Field names match the server's document schema.
type UserStats struct {
	AIUseTimes           int     `json:"AI_use_times"`
	AIInputTokens        int     `json:"AI_input_tokens"`
	AIOutputTokens       int     `json:"AI_output_tokens"`
	AITotalCost          float64 `json:"AI_total_cost"`
	WhisperUseTimes      int     `json:"Whisper_use_times"`
	WhisperTotalCost     float64 `json:"Whisper_total_cost"`
	WhisperTotalDuration float64 `json:"Whisper_total_duration"`
	Wallet               float64 `json:"wallet"`
}

// User is the authenticated account backing the session
type User struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	Email          string `json:"email,omitempty"`
	NativeLanguage string `json:"native_language,omitempty"`
	UserStats
}

// SubtitleRecord is the shared cache entry for one media fingerprint.
// The record is owned by the remote store; play_users_count and users
// only ever grow over the record's life.
type SubtitleRecord struct {
	MD5            string         `json:"md5"`
	UserID         string         `json:"user_id"`
	Subtitle       subtitle.Track `json:"subtitle"`
	VideoDuration  float64        `json:"video_duration"`
	PlayUsersCount int            `json:"play_users_count"`
	PlayTimes      int            `json:"play_times"`
	Users          []string       `json:"users"`
}

// SubtitlePatch is a partial update of a subtitle record.
// Nil fields are left untouched by the server.
type SubtitlePatch struct {
	MD5            string   `json:"md5"`
	PlayUsersCount *int     `json:"play_users_count,omitempty"`
	PlayTimes      *int     `json:"play_times,omitempty"`
	Users          []string `json:"users,omitempty"`
}

// LoginResult is the response of a successful login
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// NotebookEntry is one saved word lookup
type NotebookEntry struct {
	Word      string `json:"word"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at,omitempty"`
}

// envelope is the server's uniform response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}
