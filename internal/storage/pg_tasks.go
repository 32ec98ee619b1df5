package storage

import (
	"context"
	"errors"

	"github.com/ecoboard/backend/internal/models"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `id, user_wallet, task_type, task_id, points_awarded, completed_at`

func scanTask(row pgx.Row) (*models.EcoTask, error) {
	var t models.EcoTask
	err := row.Scan(&t.ID, &t.UserWallet, &t.TaskType, &t.TaskID, &t.PointsAwarded, &t.CompletedAt)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return &t, nil
}

func (r *PGStorage) CreateEcoTask(ctx context.Context, in models.NewEcoTask) (*models.EcoTask, error) {
	return scanTask(r.pool.QueryRow(ctx, `
		INSERT INTO eco_tasks (user_wallet, task_type, task_id, points_awarded)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns,
		in.UserWallet, in.TaskType, in.TaskID, in.PointsAwarded,
	))
}

func (r *PGStorage) RecordEcoTask(ctx context.Context, in models.NewEcoTask) (*models.EcoTask, *models.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// 1. Записываем задачу
	task, err := scanTask(tx.QueryRow(ctx, `
		INSERT INTO eco_tasks (user_wallet, task_type, task_id, points_awarded)
		VALUES ($1, $2, $3, $4)
		RETURNING `+taskColumns,
		in.UserWallet, in.TaskType, in.TaskID, in.PointsAwarded,
	))
	if err != nil {
		return nil, nil, err
	}

	// 2. Начисляем очки; нет пользователя = нечего начислять
	user, err := scanUser(tx.QueryRow(ctx, `
		UPDATE users SET eco_points = eco_points + $1
		WHERE wallet_address = $2
		RETURNING `+userColumns,
		in.PointsAwarded, in.UserWallet,
	))
	if errors.Is(err, ErrNotFound) {
		user = nil
	} else if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return task, user, nil
}

func (r *PGStorage) GetUserTasks(ctx context.Context, userWallet string) ([]models.EcoTask, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+`
		FROM eco_tasks WHERE user_wallet = $1
		ORDER BY id
	`, userWallet)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.EcoTask{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}
