package models

// StatsWindowSize is the number of most recent sessions averaged per art.
const StatsWindowSize = 5

// CriterionStat is the rolling average of one ratable criterion. The name is
// the criterion's current name.
type CriterionStat struct {
	CriterionID   string  `json:"criterionId"`
	CriterionName string  `json:"criterionName"`
	Average       float64 `json:"average"`
}

// ArtStats groups the rolling averages of one discipline.
type ArtStats struct {
	ArtID          string          `json:"artId"`
	SessionCount   int             `json:"sessionCount"`
	CriterionStats []CriterionStat `json:"criterionStats"`
}
