package referrals

// Stats aggregates a referrer's downstream activity. Bonus amounts are
// integer cents computed from the settled order totals of referred users.
type Stats struct {
	TotalReferrals    int     `json:"total_referrals"`
	ActiveReferrals   int     `json:"active_referrals"`
	TotalBonusCents   int64   `json:"total_bonus_cents"`
	PendingBonusCents int64   `json:"pending_bonus_cents"`
	ConversionRate    float64 `json:"conversion_rate"`
}

// AllocateCodeResult reports the code assigned to the user.
type AllocateCodeResult struct {
	Code string `json:"code"`
}
