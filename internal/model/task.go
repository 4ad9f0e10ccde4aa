package model

import "time"

// Task is the domain model for a todo entry as the server stores it.
// The id is always issued by the server; the client never invents one.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the signed-in user as derived from the stored credential.
// The server keys everything off the email; ID is a local placeholder.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
