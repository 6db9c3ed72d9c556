package core

import "time"

// SlugDateLayout is the date layout the signup service expects in a slug.
const SlugDateLayout = "2006-01-02"

// Participant is one person to sign up. Email is the identity.
type Participant struct {
	FirstName string
	LastName  string
	Email     string
	Enabled   bool
}

// Target identifies the ride occurrence to sign up for.
type Target struct {
	ServiceURL string
	ActivityID string
	Date       time.Time
}

// Slug returns the service's identifier for this occurrence.
func (t Target) Slug() string {
	return Slug(t.ActivityID, t.Date)
}

// Slug builds "<activityID>-<YYYY-MM-DD>".
func Slug(activityID string, date time.Time) string {
	return activityID + "-" + date.Format(SlugDateLayout)
}

// EnabledParticipants returns the participants that should be signed up,
// preserving order.
func EnabledParticipants(all []Participant) []Participant {
	out := make([]Participant, 0, len(all))
	for _, p := range all {
		if p.Enabled {
			out = append(out, p)
		}
	}
	return out
}
