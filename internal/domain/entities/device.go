package entities

// Device is a registered braille hardware unit. LastSeen is a millisecond
// unix timestamp updated on every (re-)registration.
type Device struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastSeen int64  `json:"last_seen"`
}
