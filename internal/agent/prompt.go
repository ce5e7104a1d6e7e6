package agent

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	finalAnswerMarker = "Final Answer:"
	observationStop   = "\nObservation:"
)

const promptPrefix = "Answer the following questions as best you can. You have access to the following tools:\n\n"

const promptFormat = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

`

var actionPattern = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)

type step struct {
	log         string
	tool        string
	input       string
	observation string
}

type decision struct {
	final  bool
	answer string
	tool   string
	input  string
}

func buildPrompt(tools []Tool, instruction string, steps []step) string {
	var b strings.Builder
	b.WriteString(promptPrefix)

	names := make([]string, 0, len(tools))
	for _, t := range tools {
		fmt.Fprintf(&b, "%s: %s\n", t.Name, t.Description)
		names = append(names, t.Name)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, promptFormat, strings.Join(names, ", "))

	b.WriteString("Question: ")
	b.WriteString(instruction)
	b.WriteString("\nThought:")
	for _, s := range steps {
		b.WriteString(s.log)
		b.WriteString("\nObservation: ")
		b.WriteString(s.observation)
		b.WriteString("\nThought:")
	}
	return b.String()
}

// parseDecision reads one model turn. A final answer wins over an action
// when both appear, matching how the scratchpad is replayed.
func parseDecision(text string) (decision, bool) {
	if i := strings.Index(text, finalAnswerMarker); i >= 0 {
		return decision{
			final:  true,
			answer: strings.TrimSpace(text[i+len(finalAnswerMarker):]),
		}, true
	}

	m := actionPattern.FindStringSubmatch(text)
	if m == nil {
		return decision{}, false
	}
	input := m[2]
	if i := strings.Index(input, observationStop); i >= 0 {
		input = input[:i]
	}
	input = strings.Trim(strings.TrimSpace(input), `"`)
	return decision{
		tool:  strings.TrimSpace(m[1]),
		input: input,
	}, true
}
