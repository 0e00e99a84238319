package internal

import "time"

// Link is a single short alias to destination mapping.
type Link struct {
	ID        int64     `json:"id"`
	ShortID   string    `json:"short_id"`
	LongURL   string    `json:"long_url"`
	Clicks    int64     `json:"clicks"`
	CreatedAt time.Time `json:"created_at"`
}

// Visit is one recorded redirect through a short link. Country and Referrer
// are best-effort and stay nil when they cannot be determined.
type Visit struct {
	ID        int64     `json:"id"`
	ShortID   string    `json:"short_id"`
	IP        string    `json:"ip"`
	Country   *string   `json:"country"`
	UserAgent string    `json:"user_agent"`
	Device    string    `json:"device"`
	Browser   string    `json:"browser"`
	Referrer  *string   `json:"referrer"`
	CreatedAt time.Time `json:"created_at"`
}

// Grouped visit counts for the analytics report. Country can be null for
// visits whose origin could not be resolved.
type CountryCount struct {
	Country *string `json:"country"`
	Count   int64   `json:"cnt"`
}

type DeviceCount struct {
	Device string `json:"device"`
	Count  int64  `json:"cnt"`
}

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"cnt"`
}
