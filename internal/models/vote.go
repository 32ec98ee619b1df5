package models

import "time"

type Vote struct {
	ID              int64     `json:"id"`
	ProposalID      int64     `json:"proposalId"`
	VoterWallet     string    `json:"voterWallet"`
	Vote            bool      `json:"vote"` // true = yes
	TransactionHash *string   `json:"transactionHash"`
	CreatedAt       time.Time `json:"createdAt"`
}

type NewVote struct {
	ProposalID      int64
	VoterWallet     string
	Vote            bool
	TransactionHash *string
}

func (n NewVote) Build(id int64, now time.Time) Vote {
	return Vote{
		ID:              id,
		ProposalID:      n.ProposalID,
		VoterWallet:     n.VoterWallet,
		Vote:            n.Vote,
		TransactionHash: n.TransactionHash,
		CreatedAt:       now,
	}
}
