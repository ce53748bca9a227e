package pkg

import (
	"strings"

	"github.com/google/uuid"
)

func GenerateNewSessionID() string {
	return uuid.NewString()
}

// GenerateRoomID returns a short upper-case id that is easy to share.
func GenerateRoomID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(id[:10])
}
