package models

import "time"

// DefaultFontSize is used when a note is created without one.
const DefaultFontSize = 16

// Note represents a positioned text item on a board.
type Note struct {
	ID        string    `json:"uuid"`
	BoardID   string    `json:"board_id"`
	Text      string    `json:"text"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Width     float64   `json:"width"`
	Height    float64   `json:"height"`
	FontSize  int       `json:"font_size"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteInput is the payload for creating a note. Omitted geometry is zero.
type NoteInput struct {
	BoardID  string   `json:"board_id"`
	Text     *string  `json:"text"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	FontSize *int     `json:"font_size"`
}

// NotePatch carries the optional fields of a partial note update; nil fields
// keep their stored value.
type NotePatch struct {
	Text     *string  `json:"text"`
	X        *float64 `json:"x"`
	Y        *float64 `json:"y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	FontSize *int     `json:"font_size"`
}

// Note event actions broadcast to live board subscribers.
const (
	NoteCreated = "note.created"
	NoteUpdated = "note.updated"
	NoteDeleted = "note.deleted"
)
