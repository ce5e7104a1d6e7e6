package models

// CommentaryRecord is the unit returned to callers: the structured news
// fields parsed from the agent answer merged with the geocoded location
// they were produced for.
type CommentaryRecord struct {
	Commentary string  `json:"commentary"`
	Date       string  `json:"date"`
	Source     string  `json:"source"` // URL of the news item
	Location   string  `json:"location"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// NewCommentaryRecord copies location and coordinates verbatim from loc.
func NewCommentaryRecord(commentary, date, source string, loc GeocodedLocation) CommentaryRecord {
	return CommentaryRecord{
		Commentary: commentary,
		Date:       date,
		Source:     source,
		Location:   loc.Location,
		Latitude:   loc.Latitude,
		Longitude:  loc.Longitude,
	}
}
