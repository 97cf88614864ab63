package models

import "time"

// Post keeps a snapshot of the author's name and avatar taken at creation
// time; later changes to the user are not reflected.
type Post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}
