package models

import (
	"testing"
	"time"
)

func TestCountVotes(t *testing.T) {
	tests := []struct {
		name  string
		votes []bool
		want  Tally
	}{
		{"empty", nil, Tally{}},
		{"single yes", []bool{true}, Tally{Yes: 1}},
		{"single no", []bool{false}, Tally{No: 1}},
		{"mixed", []bool{true, false, true, true, false}, Tally{Yes: 3, No: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var votes []Vote
			for i, v := range tt.votes {
				votes = append(votes, Vote{ID: int64(i + 1), ProposalID: 1, Vote: v})
			}
			got := CountVotes(votes)
			if got != tt.want {
				t.Errorf("CountVotes() = %+v, want %+v", got, tt.want)
			}
			if got.Yes+got.No != len(votes) {
				t.Errorf("tally %d does not match %d votes", got.Yes+got.No, len(votes))
			}
		})
	}
}

func TestNewUserBuildDefaults(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	u := NewUser{WalletAddress: "W1"}.Build(7, now)

	if u.ID != 7 || u.WalletAddress != "W1" {
		t.Fatalf("unexpected identity: %+v", u)
	}
	if u.EcoPoints != 0 || u.Streak != 0 || u.CompletedTasks != 0 {
		t.Errorf("counters should default to zero, got %+v", u)
	}
	if u.Achievements == nil || len(u.Achievements) != 0 {
		t.Errorf("achievements should be an empty list, got %#v", u.Achievements)
	}
	if !u.CreatedAt.Equal(now) {
		t.Errorf("createdAt = %v, want %v", u.CreatedAt, now)
	}
}

func TestNewUserBuildKeepsSuppliedValues(t *testing.T) {
	points, streak := 50, 3
	u := NewUser{
		WalletAddress: "W1",
		EcoPoints:     &points,
		Streak:        &streak,
		Achievements:  []string{"first-vote"},
	}.Build(1, time.Now())

	if u.EcoPoints != 50 || u.Streak != 3 {
		t.Errorf("supplied counters lost: %+v", u)
	}
	if len(u.Achievements) != 1 || u.Achievements[0] != "first-vote" {
		t.Errorf("achievements = %v", u.Achievements)
	}
}

func TestUserCloneIsDeep(t *testing.T) {
	name := "alice"
	u := User{Username: &name, Achievements: []string{"a"}}
	c := u.Clone()
	c.Achievements[0] = "b"
	*c.Username = "bob"

	if u.Achievements[0] != "a" {
		t.Error("clone shares achievements slice")
	}
	if *u.Username != "alice" {
		t.Error("clone shares username pointer")
	}
}

func TestNewProposalBuild(t *testing.T) {
	end := time.Now().Add(7 * 24 * time.Hour)
	p := NewProposal{Title: "Solar", Category: "Energy", AuthorWallet: "A", EndDate: end}.Build(3, time.Now())

	if !p.IsActive {
		t.Error("new proposal must be active")
	}
	if p.YesVotes != 0 || p.NoVotes != 0 || p.TotalVotes() != 0 {
		t.Errorf("new proposal must have zero tallies, got %d/%d", p.YesVotes, p.NoVotes)
	}
	if !p.EndDate.Equal(end) {
		t.Errorf("endDate = %v, want %v", p.EndDate, end)
	}
}
