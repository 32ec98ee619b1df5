package models

import "time"

type User struct {
	ID             int64     `json:"id"`
	WalletAddress  string    `json:"walletAddress"`
	Username       *string   `json:"username"`
	EcoPoints      int       `json:"ecoPoints"`
	Streak         int       `json:"streak"`
	CompletedTasks int       `json:"completedTasks"`
	Achievements   []string  `json:"achievements"`
	CreatedAt      time.Time `json:"createdAt"`
}

// NewUser is the insert shape for a user. Nil counters fall back to zero.
type NewUser struct {
	WalletAddress  string
	Username       *string
	EcoPoints      *int
	Streak         *int
	CompletedTasks *int
	Achievements   []string
}

// Build applies the creation defaults.
func (n NewUser) Build(id int64, now time.Time) User {
	u := User{
		ID:            id,
		WalletAddress: n.WalletAddress,
		Username:      n.Username,
		Achievements:  []string{},
		CreatedAt:     now,
	}
	if n.EcoPoints != nil {
		u.EcoPoints = *n.EcoPoints
	}
	if n.Streak != nil {
		u.Streak = *n.Streak
	}
	if n.CompletedTasks != nil {
		u.CompletedTasks = *n.CompletedTasks
	}
	if len(n.Achievements) > 0 {
		u.Achievements = append(u.Achievements, n.Achievements...)
	}
	return u
}

// Clone returns a copy that shares no slices with u.
func (u User) Clone() User {
	c := u
	c.Achievements = append([]string{}, u.Achievements...)
	if u.Username != nil {
		name := *u.Username
		c.Username = &name
	}
	return c
}
