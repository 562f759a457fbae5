package domain

import "time"

// Campaign holds the funding totals owned by a campaign. The reconciler only
// ever increments CurrentAmount and SupportersCount; it never rewrites them.
type Campaign struct {
	ID              string    `json:"id"`
	CreatorUsername string    `json:"creatorUsername"`
	Title           string    `json:"title"`
	GoalAmount      int64     `json:"goalAmount"`
	CurrentAmount   int64     `json:"currentAmount"`
	SupportersCount int64     `json:"supportersCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Creator holds denormalized per-creator funding statistics, incremented in
// lockstep with the campaign totals on first settlement of each payment.
type Creator struct {
	Username        string    `json:"username"`
	TotalRaised     int64     `json:"totalRaised"`
	TotalSupporters int64     `json:"totalSupporters"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
