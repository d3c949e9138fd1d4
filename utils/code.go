package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewConfirmationCode returns the 8-character uppercase token a citizen can
// type in to confirm a cleanup without logging in. Uniqueness is enforced
// by the DB index; callers retry on collision.
func NewConfirmationCode() string {
	return strings.ToUpper(uuid.NewString()[:8])
}
