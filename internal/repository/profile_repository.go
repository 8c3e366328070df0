package repository

import (
	"context"
)

type PostgresProfileRepository struct {
	db DBTX
}

func NewProfileRepository(db DBTX) ProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) GetIDByLogin(ctx context.Context, login string) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `
        SELECT p.id
        FROM profile p
        JOIN jhi_user u ON u.id = p.user_id
        WHERE u.login = $1
        ORDER BY p.id ASC
        LIMIT 1
    `, login).Scan(&id)
	if err != nil {
		return 0, translateError("get profile by login", err)
	}
	return id, nil
}
