package settings

// Settings is the flat per-installation record. CurrentFilter holds the
// active month filter (YYYY-MM) or "" when all months are shown.
type Settings struct {
	CurrentFilter string `json:"currentFilter"`
}
