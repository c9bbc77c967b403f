package utils

import "github.com/google/uuid"

// GetUUID returns a random v4 uuid string.
func GetUUID() string {
	return uuid.New().String()
}
