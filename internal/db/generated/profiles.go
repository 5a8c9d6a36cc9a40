package dbgen

import (
	"context"
	"database/sql"
)

const getProfile = `
SELECT user_id, community_id, group_owner_id, email, created_at, updated_at
FROM profiles
WHERE user_id = ?
`

func (q *Queries) GetProfile(ctx context.Context, userID string) (Profile, error) {
	row := q.db.QueryRowContext(ctx, getProfile, userID)
	var i Profile
	err := row.Scan(
		&i.UserID,
		&i.CommunityID,
		&i.GroupOwnerID,
		&i.Email,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertProfile = `
INSERT INTO profiles (user_id, community_id, group_owner_id, email)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET
    community_id = excluded.community_id,
    group_owner_id = excluded.group_owner_id,
    email = excluded.email,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertProfileParams struct {
	UserID       string
	CommunityID  sql.NullInt64
	GroupOwnerID sql.NullString
	Email        string
}

func (q *Queries) UpsertProfile(ctx context.Context, arg UpsertProfileParams) (Profile, error) {
	if _, err := q.db.ExecContext(ctx, upsertProfile,
		arg.UserID,
		arg.CommunityID,
		arg.GroupOwnerID,
		arg.Email,
	); err != nil {
		return Profile{}, err
	}
	return q.GetProfile(ctx, arg.UserID)
}
