package domain

import "time"

// ============================================================
// Admin session
// ============================================================

// AdminSession is returned by POST /api/admin/session. The token is sent
// back as "Authorization: Bearer <token>" instead of the raw admin key.
type AdminSession struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int       `json:"expiresIn"`
}
