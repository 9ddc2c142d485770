package domain

import "time"

// GeneratedImage is the image currently displayed to a visitor. Version
// increases on every replacement so stale references stop resolving.
type GeneratedImage struct {
	Data      []byte
	MIME      string
	Version   int
	CreatedAt time.Time
}
