package service

import (
	"strings"

	"github.com/google/uuid"
)

// opaqueID returns the first n hex characters of a random uuid. Sessions use
// 16-char ids, lessons 8-char ids.
func opaqueID(n int) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:n]
}
