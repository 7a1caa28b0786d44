package user

import (
	"strings"
	"time"
)

// OnlineWindow is how recently a member must have been active to count
// as online.
const OnlineWindow = 5 * time.Minute

type User struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	Nickname   string    `json:"nickname" gorm:"type:varchar(32);not null;uniqueIndex"`
	CreatedAt  time.Time `json:"created_at" gorm:"not null"`
	LastActive time.Time `json:"last_active" gorm:"not null;index"`
}

// ShareableCode is the short recovery code shown to the user: the first
// UUID segment, upper-cased.
func (u *User) ShareableCode() string {
	head, _, _ := strings.Cut(u.ID, "-")
	return strings.ToUpper(head)
}

type Member struct {
	ID         string    `json:"id"`
	Nickname   string    `json:"nickname"`
	LastActive time.Time `json:"last_active"`
	Online     bool      `json:"online"`
}

type RegisterRequest struct {
	Nickname string `json:"nickname" binding:"required"`
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Nickname string `json:"nickname"`
}

type ClaimRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Nickname string `json:"nickname" binding:"required"`
}

type AuthResponse struct {
	User          *User     `json:"user"`
	Token         string    `json:"token"`
	ExpiresAt     time.Time `json:"expires_at"`
	ShareableCode string    `json:"shareable_code"`
}

type AvailabilityResponse struct {
	Nickname  string `json:"nickname"`
	Available bool   `json:"available"`
}

type MemberListResponse struct {
	Members []Member `json:"members"`
	Online  int      `json:"online"`
}
