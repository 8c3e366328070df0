package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Querier is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const seedProfileSQL = `
WITH u AS (
    INSERT INTO jhi_user (login) VALUES ($1)
    ON CONFLICT (login) DO UPDATE SET login = EXCLUDED.login
    RETURNING id
)
INSERT INTO profile (user_id) SELECT id FROM u
ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
RETURNING id`

// SeedProfiles makes sure every login has a user and a profile row and returns the profile
// ids. Running it twice is harmless.
func SeedProfiles(ctx context.Context, db Querier, logins []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(logins))
	for _, login := range logins {
		login = strings.ToLower(strings.TrimSpace(login))
		if login == "" {
			continue
		}
		var id int64
		if err := db.QueryRow(ctx, seedProfileSQL, login).Scan(&id); err != nil {
			return ids, fmt.Errorf("seed profile %q: %w", login, err)
		}
		ids[login] = id
	}
	return ids, nil
}
