package models

// GeocodedLocation is a discovered place name with resolved coordinates.
type GeocodedLocation struct {
	Location  string  `json:"location"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Coordinates is what a geocoder resolves a name to.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}
