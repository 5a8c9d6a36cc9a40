package dbgen

import (
	"context"
)

const communityColumns = `id, name, court_count, open_minute, close_minute, default_duration,
    max_concurrent_bookings, allow_simultaneous_bookings, timezone, created_at, updated_at`

func scanCommunity(row interface{ Scan(...interface{}) error }) (Community, error) {
	var i Community
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.CourtCount,
		&i.OpenMinute,
		&i.CloseMinute,
		&i.DefaultDuration,
		&i.MaxConcurrentBookings,
		&i.AllowSimultaneousBookings,
		&i.Timezone,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getCommunity = `
SELECT ` + communityColumns + `
FROM communities
WHERE id = ?
`

func (q *Queries) GetCommunity(ctx context.Context, id int64) (Community, error) {
	row := q.db.QueryRowContext(ctx, getCommunity, id)
	return scanCommunity(row)
}

const createCommunity = `
INSERT INTO communities (
    name, court_count, open_minute, close_minute, default_duration,
    max_concurrent_bookings, allow_simultaneous_bookings, timezone
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateCommunityParams struct {
	Name                      string
	CourtCount                int64
	OpenMinute                int64
	CloseMinute               int64
	DefaultDuration           int64
	MaxConcurrentBookings     int64
	AllowSimultaneousBookings bool
	Timezone                  string
}

func (q *Queries) CreateCommunity(ctx context.Context, arg CreateCommunityParams) (Community, error) {
	result, err := q.db.ExecContext(ctx, createCommunity,
		arg.Name,
		arg.CourtCount,
		arg.OpenMinute,
		arg.CloseMinute,
		arg.DefaultDuration,
		arg.MaxConcurrentBookings,
		arg.AllowSimultaneousBookings,
		arg.Timezone,
	)
	if err != nil {
		return Community{}, err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return Community{}, err
	}
	return q.GetCommunity(ctx, id)
}

const listCommunityDurations = `
SELECT minutes
FROM community_durations
WHERE community_id = ?
ORDER BY minutes
`

func (q *Queries) ListCommunityDurations(ctx context.Context, communityID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listCommunityDurations, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var minutes int64
		if err := rows.Scan(&minutes); err != nil {
			return nil, err
		}
		items = append(items, minutes)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addCommunityDuration = `
INSERT INTO community_durations (community_id, minutes)
VALUES (?, ?)
ON CONFLICT (community_id, minutes) DO NOTHING
`

type AddCommunityDurationParams struct {
	CommunityID int64
	Minutes     int64
}

func (q *Queries) AddCommunityDuration(ctx context.Context, arg AddCommunityDurationParams) error {
	_, err := q.db.ExecContext(ctx, addCommunityDuration, arg.CommunityID, arg.Minutes)
	return err
}
