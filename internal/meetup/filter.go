package meetup

import (
	"strings"

	"playmatch/meetups/internal/models"
)

// Filter narrows a snapshot of meetups. Zero fields match everything and
// set fields combine with AND. It applies no time-based exclusion.
type Filter struct {
	Search     string
	Sport      string
	SkillLevel models.SkillLevel
	Location   string
	City       string
	State      string
	Date       string
}

// Match reports whether m passes every set criterion.
func (f Filter) Match(m *models.Meetup) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !strings.Contains(strings.ToLower(m.Title), term) &&
			!strings.Contains(strings.ToLower(m.SportName), term) &&
			!strings.Contains(strings.ToLower(m.Location), term) {
			return false
		}
	}
	if f.Sport != "" && !strings.EqualFold(f.Sport, "all") && !strings.EqualFold(f.Sport, m.SportName) {
		return false
	}
	if f.SkillLevel != "" && f.SkillLevel != models.SkillAll && f.SkillLevel != m.SkillLevel {
		return false
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" && !strings.Contains(strings.ToLower(m.Location), loc) {
		return false
	}
	if f.City != "" && !strings.EqualFold(f.City, m.City) {
		return false
	}
	if f.State != "" && !strings.EqualFold(f.State, m.State) {
		return false
	}
	if f.Date != "" && f.Date != m.Date {
		return false
	}
	return true
}

// Apply returns the meetups matching f, preserving order.
func (f Filter) Apply(meetups []models.Meetup) []models.Meetup {
	out := make([]models.Meetup, 0, len(meetups))
	for i := range meetups {
		if f.Match(&meetups[i]) {
			out = append(out, meetups[i])
		}
	}
	return out
}
