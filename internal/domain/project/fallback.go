package project

import "time"

// Fallback returns the built-in sample listings used when the remote project
// source cannot be reached. Deadlines are relative to now so a fresh start
// always has open projects.
func Fallback(now time.Time) []Project {
	day := 24 * time.Hour
	return []Project{
		{
			ID:          "p1",
			Title:       "Landing page redesign",
			Description: "Refresh the marketing landing page with a responsive layout.",
			Category:    "design",
			BudgetMin:   100,
			BudgetMax:   300,
			BidClose:    now.Add(3 * day),
		},
		{
			ID:          "p2",
			Title:       "Inventory sync service",
			Description: "Nightly reconciliation between the warehouse system and the storefront.",
			Category:    "backend",
			BudgetMin:   1500,
			BudgetMax:   4000,
			BidClose:    now.Add(5 * day),
		},
		{
			ID:          "p3",
			Title:       "Mobile onboarding flow",
			Description: "Three-screen onboarding with analytics hooks.",
			Category:    "mobile",
			BudgetMin:   800,
			BudgetMax:   2000,
			BidClose:    now.Add(36 * time.Hour),
		},
		{
			ID:          "p4",
			Title:       "Data export tooling",
			Description: "CSV and Parquet exports for the reporting team.",
			Category:    "data",
			BudgetMin:   500,
			BudgetMax:   1200,
			BidClose:    now.Add(7 * day),
		},
	}
}
