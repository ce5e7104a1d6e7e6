package pipeline

import "github.com/mr1hm/disaster-scout/internal/models"

// DebugRecords is served instead of running the pipeline in debug mode.
func DebugRecords() []models.CommentaryRecord {
	return []models.CommentaryRecord{
		{
			Commentary: "A massive fire broke out at a chemical factory in Maharashtra's Pune district on Monday morning. The blaze erupted at the SVS Aqua Technologies plant in the Pirangut MIDC area around 7 am. At least 15 fire tenders were rushed to the spot to douse the flames. No casualties have been reported so far. The cause of the fire is not known yet.",
			Date:       "2021-09-06",
			Source:     "https://www.ndtv.com/india-news/massive-fire-breaks-out-at-chemical-factory-in-maharashtras-pune-2536164",
			Location:   "Pune",
			Latitude:   18.5204,
			Longitude:  73.8567,
		},
		{
			Commentary: "A massive earthquake of magnitude 7.2 struck Haiti on Saturday, killing at least 227 people and injuring more than 1,500 others. The quake, which was followed by a series of aftershocks, destroyed thousands of homes and buildings. The epicentre of the quake was about 125 km west of the capital Port-au-Prince. The quake was also felt in neighbouring Cuba and Jamaica.",
			Date:       "2021-08-14",
			Source:     "https://www.ndtv.com/world-news/magnitude-7-2-earthquake-strikes-haiti-227-killed-1-500-injured-250-000-affected-2518633",
			Location:   "Haiti",
			Latitude:   18.9712,
			Longitude:  72.8015,
		},
	}
}
