package dbgen

import (
	"context"
	"database/sql"
)

const getSubscription = `
SELECT community_id, active, expires_at, product_tier, updated_at
FROM subscriptions
WHERE community_id = ?
`

func (q *Queries) GetSubscription(ctx context.Context, communityID int64) (Subscription, error) {
	row := q.db.QueryRowContext(ctx, getSubscription, communityID)
	var i Subscription
	err := row.Scan(
		&i.CommunityID,
		&i.Active,
		&i.ExpiresAt,
		&i.ProductTier,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertSubscription = `
INSERT INTO subscriptions (community_id, active, expires_at, product_tier)
VALUES (?, ?, ?, ?)
ON CONFLICT (community_id) DO UPDATE SET
    active = excluded.active,
    expires_at = excluded.expires_at,
    product_tier = excluded.product_tier,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertSubscriptionParams struct {
	CommunityID int64
	Active      bool
	ExpiresAt   sql.NullTime
	ProductTier string
}

func (q *Queries) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (Subscription, error) {
	if _, err := q.db.ExecContext(ctx, upsertSubscription,
		arg.CommunityID,
		arg.Active,
		arg.ExpiresAt,
		arg.ProductTier,
	); err != nil {
		return Subscription{}, err
	}
	return q.GetSubscription(ctx, arg.CommunityID)
}
