package models

// Frequency controls when a category's notifications reach the user.
type Frequency string

const (
	FrequencyInstant Frequency = "instant"
	FrequencyDigest  Frequency = "digest"
	FrequencyOff     Frequency = "off"
)

// PriorityFilter is the minimum priority a notification must carry to be
// delivered for a category. "all" admits everything.
type PriorityFilter string

const (
	FilterAll    PriorityFilter = "all"
	FilterNormal PriorityFilter = "normal"
	FilterHigh   PriorityFilter = "high"
	FilterUrgent PriorityFilter = "urgent"
)

// Threshold returns the minimum rank the filter admits.
func (f PriorityFilter) Threshold() int {
	switch f {
	case FilterNormal:
		return PriorityNormal.Rank()
	case FilterHigh:
		return PriorityHigh.Rank()
	case FilterUrgent:
		return PriorityUrgent.Rank()
	}
	return 0
}

// QuietHours is a daily do-not-disturb window. Start and End are wall-clock
// times in "HH:MM" form; a window with Start >= End wraps past midnight.
type QuietHours struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"startTimeOfDay"`
	End     string `json:"endTimeOfDay"`
}

type CategoryPreference struct {
	Enabled        bool           `json:"enabled"`
	Frequency      Frequency      `json:"frequency"`
	PriorityFilter PriorityFilter `json:"priorityFilter"`
}

type DeliveryChannels struct {
	InApp   bool `json:"inApp"`
	Email   bool `json:"email"`
	Browser bool `json:"browser"`
	Sound   bool `json:"sound"`
}

// UserPreferences is one user's notification settings. Rows are created by
// the settings UI; the dispatch pipeline only reads them and substitutes
// defaults when no row exists.
type UserPreferences struct {
	UserID           string                          `json:"userId"`
	GlobalEnabled    bool                            `json:"globalEnabled"`
	QuietHours       QuietHours                      `json:"quietHours"`
	Categories       map[Category]CategoryPreference `json:"categories"`
	DeliveryChannels DeliveryChannels                `json:"deliveryChannels"`
}

// DefaultPreferences is the implied row for users who never opened the
// notification settings page: everything on, instant, no filtering.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{
		UserID:        userID,
		GlobalEnabled: true,
		QuietHours:    QuietHours{Enabled: false},
		Categories:    map[Category]CategoryPreference{},
		DeliveryChannels: DeliveryChannels{
			InApp:   true,
			Email:   true,
			Browser: true,
			Sound:   true,
		},
	}
}

// CategoryPreference returns the user's setting for a category, or the
// default (enabled, instant, all priorities) when the map has no entry.
func (p UserPreferences) CategoryPreference(c Category) CategoryPreference {
	if pref, ok := p.Categories[c]; ok {
		if pref.Frequency == "" {
			pref.Frequency = FrequencyInstant
		}
		if pref.PriorityFilter == "" {
			pref.PriorityFilter = FilterAll
		}
		return pref
	}
	return CategoryPreference{
		Enabled:        true,
		Frequency:      FrequencyInstant,
		PriorityFilter: FilterAll,
	}
}
