package storage

import (
	"context"

	"github.com/ecoboard/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

const voteColumns = `id, proposal_id, voter_wallet, vote, transaction_hash, created_at`

func scanVote(row pgx.Row) (*models.Vote, error) {
	var v models.Vote
	err := row.Scan(&v.ID, &v.ProposalID, &v.VoterWallet, &v.Vote, &v.TransactionHash, &v.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &v, nil
}

// CreateVote relies on the votes_proposal_voter_key unique index; a second
// vote for the same pair fails with ErrDuplicateVote.
func (r *PGStorage) CreateVote(ctx context.Context, in models.NewVote) (*models.Vote, error) {
	v, err := scanVote(r.pool.QueryRow(ctx, `
		INSERT INTO votes (proposal_id, voter_wallet, vote, transaction_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING `+voteColumns,
		in.ProposalID, in.VoterWallet, in.Vote, in.TransactionHash,
	))
	if isUniqueViolation(err) {
		return nil, ErrDuplicateVote
	}
	return v, err
}

func (r *PGStorage) GetUserVote(ctx context.Context, proposalID int64, voterWallet string) (*models.Vote, error) {
	return scanVote(r.pool.QueryRow(ctx, `
		SELECT `+voteColumns+`
		FROM votes WHERE proposal_id = $1 AND voter_wallet = $2
	`, proposalID, voterWallet))
}

func (r *PGStorage) GetProposalVotes(ctx context.Context, proposalID int64) ([]models.Vote, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+voteColumns+`
		FROM votes WHERE proposal_id = $1
		ORDER BY id
	`, proposalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []models.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, *v)
	}
	return votes, rows.Err()
}
