package storage

import (
	"context"

	"github.com/ecoboard/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

const proposalColumns = `id, title, description, category, author_wallet, yes_votes, no_votes, end_date, is_active, created_at`

func scanProposal(row pgx.Row) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Category, &p.AuthorWallet,
		&p.YesVotes, &p.NoVotes, &p.EndDate, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &p, nil
}

func (r *PGStorage) GetProposals(ctx context.Context) ([]models.Proposal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+proposalColumns+`
		FROM proposals
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []models.Proposal{}
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *p)
	}
	return proposals, rows.Err()
}

func (r *PGStorage) GetProposal(ctx context.Context, id int64) (*models.Proposal, error) {
	return scanProposal(r.pool.QueryRow(ctx, `
		SELECT `+proposalColumns+`
		FROM proposals WHERE id = $1
	`, id))
}

func (r *PGStorage) CreateProposal(ctx context.Context, in models.NewProposal) (*models.Proposal, error) {
	return scanProposal(r.pool.QueryRow(ctx, `
		INSERT INTO proposals (title, description, category, author_wallet, end_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+proposalColumns,
		in.Title, in.Description, in.Category, in.AuthorWallet, in.EndDate,
	))
}

func (r *PGStorage) UpdateProposalVotes(ctx context.Context, id int64, yesVotes, noVotes int) (*models.Proposal, error) {
	return scanProposal(r.pool.QueryRow(ctx, `
		UPDATE proposals SET yes_votes = $1, no_votes = $2
		WHERE id = $3
		RETURNING `+proposalColumns,
		yesVotes, noVotes, id,
	))
}

// RecountProposalVotes locks the proposal row before counting, so the count
// runs on a snapshot taken after any concurrent recount has committed.
func (r *PGStorage) RecountProposalVotes(ctx context.Context, id int64) (*models.Proposal, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var locked int64
	if err := tx.QueryRow(ctx, `SELECT id FROM proposals WHERE id = $1 FOR UPDATE`, id).Scan(&locked); err != nil {
		return nil, mapNoRows(err)
	}

	p, err := scanProposal(tx.QueryRow(ctx, `
		UPDATE proposals SET
			yes_votes = (SELECT count(*) FROM votes WHERE proposal_id = $1 AND vote),
			no_votes  = (SELECT count(*) FROM votes WHERE proposal_id = $1 AND NOT vote)
		WHERE id = $1
		RETURNING `+proposalColumns,
		id,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
