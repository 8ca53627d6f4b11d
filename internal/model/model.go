package model

// User is a registered account. The credential hash lives only in the
// registered-users record; the persisted current-user record and anything
// handed to the presentation layer carry the Public copy.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	IsLoggedIn   bool   `json:"isLoggedIn"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// Public returns a copy of the user with the credential hash stripped.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}

// Location is an optional place attached to an event. Coordinates are
// optional: a location may be a free-text name only.
type Location struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

type Event struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Date         string    `json:"date"` // ISO calendar date, e.g. 2026-05-17
	Time         string    `json:"time"` // 24h clock, e.g. 18:30
	Location     *Location `json:"location,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    string    `json:"createdAt"` // RFC3339
	Participants []string  `json:"participants"`

	// IsParticipating is derived per viewing user at read time and is
	// never persisted.
	IsParticipating bool `json:"-"`
}

// Address is a geocoding candidate: a resolved place with coordinates.
type Address struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// WeatherReport is the normalized current-weather shape callers see,
// decoupled from any provider's condition taxonomy.
type WeatherReport struct {
	Temperature int    `json:"temperature"` // °C, rounded
	Condition   string `json:"condition"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Humidity    int    `json:"humidity"`  // percent
	WindSpeed   int    `json:"windSpeed"` // km/h, rounded
	City        string `json:"city"`
}
