package storage

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ecoboard/backend/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStorage is the Postgres-backed Storage. Schema lives in
// internal/db/migrations.
type PGStorage struct {
	pool *pgxpool.Pool
}

func NewPGStorage(pool *pgxpool.Pool) *PGStorage {
	return &PGStorage{pool: pool}
}

const userColumns = `id, wallet_address, username, eco_points, streak, completed_tasks, achievements, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u   models.User
		raw []byte
	)
	err := row.Scan(&u.ID, &u.WalletAddress, &u.Username, &u.EcoPoints, &u.Streak, &u.CompletedTasks, &raw, &u.CreatedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	u.Achievements = []string{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &u.Achievements); err != nil {
			return nil, err
		}
	}
	return &u, nil
}

func (r *PGStorage) GetUser(ctx context.Context, walletAddress string) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users WHERE wallet_address = $1
	`, walletAddress))
}

// CreateUser overwrites an existing row for the same wallet, the same way
// the memory store does; the row keeps its id and position.
func (r *PGStorage) CreateUser(ctx context.Context, in models.NewUser) (*models.User, error) {
	u := in.Build(0, time.Time{})
	achievements, err := json.Marshal(u.Achievements)
	if err != nil {
		return nil, err
	}

	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (wallet_address, username, eco_points, streak, completed_tasks, achievements)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb)
		ON CONFLICT (wallet_address) DO UPDATE SET
			username = EXCLUDED.username,
			eco_points = EXCLUDED.eco_points,
			streak = EXCLUDED.streak,
			completed_tasks = EXCLUDED.completed_tasks,
			achievements = EXCLUDED.achievements,
			created_at = now()
		RETURNING `+userColumns,
		u.WalletAddress, u.Username, u.EcoPoints, u.Streak, u.CompletedTasks, string(achievements),
	))
}

func (r *PGStorage) UpdateUserEcoPoints(ctx context.Context, walletAddress string, delta int) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET eco_points = eco_points + $1
		WHERE wallet_address = $2
		RETURNING `+userColumns,
		delta, walletAddress,
	))
}

func (r *PGStorage) UpdateUserStreak(ctx context.Context, walletAddress string, streak int) (*models.User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		UPDATE users SET streak = $1
		WHERE wallet_address = $2
		RETURNING `+userColumns,
		streak, walletAddress,
	))
}

func (r *PGStorage) GetLeaderboard(ctx context.Context, limit int) ([]models.User, error) {
	if limit < 0 {
		limit = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY eco_points DESC, id ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func mapNoRows(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
