// pkg/models/plans.go
package models

// PlanInfo describes a subscription tier. SearchesPerMonth of -1 means unlimited.
type PlanInfo struct {
	Plan             Plan     `json:"plan"`
	Name             string   `json:"name"`
	SearchesPerMonth int      `json:"searchesPerMonth"`
	Features         []string `json:"features"`
}

const FreeSearchesPerMonth = 3

var Plans = []PlanInfo{
	{
		Plan:             PlanFree,
		Name:             "Free",
		SearchesPerMonth: FreeSearchesPerMonth,
		Features:         []string{"Search by talent ID", "View verified profiles"},
	},
	{
		Plan:             PlanPro,
		Name:             "Pro",
		SearchesPerMonth: 50,
		Features:         []string{"Search by talent ID", "Search by profession", "Search history"},
	},
	{
		Plan:             PlanEnterprise,
		Name:             "Enterprise",
		SearchesPerMonth: -1,
		Features:         []string{"Unlimited searches", "Search by name", "Priority support"},
	},
}

// DefaultSubscription is what every new employer starts on.
func DefaultSubscription() Subscription {
	return Subscription{
		Plan:              PlanFree,
		SearchesRemaining: FreeSearchesPerMonth,
		SearchesUsed:      0,
	}
}
