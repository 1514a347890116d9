package domain

import "github.com/google/uuid"

// NewID returns a random identifier for users, teams and tasks.
func NewID() string {
	return uuid.NewString()
}

// ValidID reports whether id has the shape of an identifier issued by NewID.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
