package domain

import (
	"fmt"
	"time"
)

const DefaultSequenceWidth = 6

type SequenceCounter struct {
	Namespace string    `json:"namespace"`
	Prefix    string    `json:"prefix"`
	Width     int       `json:"width"`
	Value     int64     `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Format renders value as PREFIX-000042 using the counter's prefix and width.
func (s *SequenceCounter) Format(value int64) string {
	width := s.Width
	if width <= 0 {
		width = DefaultSequenceWidth
	}
	return fmt.Sprintf("%s-%0*d", s.Prefix, width, value)
}

// SequenceReset is the audit record of a manual counter change.
type SequenceReset struct {
	ID        string    `json:"id"`
	Namespace string    `json:"namespace"`
	OldValue  int64     `json:"old_value"`
	NewValue  int64     `json:"new_value"`
	Actor     string    `json:"actor"`
	Reason    string    `json:"reason"`
	ResetAt   time.Time `json:"reset_at"`
}
