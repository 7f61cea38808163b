package model

import "time"

// AdminSession 是一次管理员登录产生的会话。
type AdminSession struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired 判断会话在 now 时刻是否已过期。
func (s AdminSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
