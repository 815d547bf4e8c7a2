package domain

import "time"

type Membership struct {
	MappingID string
	Network   string
	Channel   string // normalized, lowercase, with prefix
	CreatedAt time.Time
}
