package model

import "time"

// Counters maps an entity type name (EntityUser, ...) to the last id handed
// out for that type. A missing entry means no id has been allocated yet.
type Counters map[string]int64

// Session is the persisted "who is logged in" value. Its absence from the
// store means the anonymous state.
//
// SID changes on every login, so a token issued for an earlier login no
// longer matches once someone logs in again or logs out.
type Session struct {
	UserID    int64     `json:"userId"`
	SID       string    `json:"sid,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
}
