package pipeline

import (
	"fmt"
	"strings"
)

const answerPreamble = "Answer the user's question as best as possible.\n"

// LocationPrompt asks the agent for a comma separated list of places
// affected by disasters matching idea.
func LocationPrompt(idea string) string {
	return answerPreamble + fmt.Sprintf(
		"The user is interested in finding locations affected by disasters. Given the prompt %s, "+
			"find the relevant affected areas of disaster (like specific landmarks, attractions, or sites), "+
			"and return just the name of the locations in a list, separated by commas.",
		idea)
}

// CommentaryPrompt asks for the latest disaster news at location, shaped
// by formatInstructions.
func CommentaryPrompt(location, formatInstructions string) string {
	return answerPreamble + formatInstructions + "\n" + fmt.Sprintf(
		"The user is interested in finding disaster commentary for the location %s. "+
			"Find the latest news about the disasters along with the date and the location of the disaster, "+
			"along with the source (link) of the news",
		location)
}

// SplitLocations turns a comma separated answer into trimmed, non-empty
// names. Order and duplicates are kept.
func SplitLocations(answer string) []string {
	parts := strings.Split(answer, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			names = append(names, name)
		}
	}
	return names
}
