package models

import "time"

// TelegramBoardName is the board every chat user's messages land on.
const TelegramBoardName = "Telegram Board"

// Board is a named collection of notes owned by one user.
type Board struct {
	ID        string    `json:"uuid"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
}

// BoardDetail is a board together with all of its notes.
type BoardDetail struct {
	Board
	Notes []Note `json:"notes"`
}
