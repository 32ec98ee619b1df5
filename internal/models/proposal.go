package models

import "time"

type Proposal struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	AuthorWallet string    `json:"authorWallet"`
	YesVotes     int       `json:"yesVotes"`
	NoVotes      int       `json:"noVotes"`
	EndDate      time.Time `json:"endDate"`
	IsActive     bool      `json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
}

type NewProposal struct {
	Title        string
	Description  string
	Category     string
	AuthorWallet string
	EndDate      time.Time
}

// Build returns a fresh proposal: zero tallies, active.
func (n NewProposal) Build(id int64, now time.Time) Proposal {
	return Proposal{
		ID:           id,
		Title:        n.Title,
		Description:  n.Description,
		Category:     n.Category,
		AuthorWallet: n.AuthorWallet,
		EndDate:      n.EndDate,
		IsActive:     true,
		CreatedAt:    now,
	}
}

func (p Proposal) TotalVotes() int {
	return p.YesVotes + p.NoVotes
}

// Tally is the cached yes/no count stored on a proposal.
type Tally struct {
	Yes int `json:"yes"`
	No  int `json:"no"`
}

// CountVotes recounts a full vote list.
func CountVotes(votes []Vote) Tally {
	var t Tally
	for _, v := range votes {
		if v.Vote {
			t.Yes++
		} else {
			t.No++
		}
	}
	return t
}
