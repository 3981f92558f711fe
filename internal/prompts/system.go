package prompts

import (
	"fmt"
	"strings"

	"github.com/weissjeffm/mybot/internal/tools"
)

// systemHeader opens the system prompt. The %s verb is the bot's
// display name.
const systemHeader = `You are %s, an autonomous agent in a group chat.
You have access to the following tools:

`

// systemInstructions closes the system prompt with the action wire
// format. One action per line; multiple Action: lines in one reply run
// in parallel.
const systemInstructions = `
To use a tool, reply with a line of the form:
Action: tool_name(arg1, arg2, keyword='value')

Rules:
- Arguments must be literal values (strings, numbers, true/false, null). No variables, arithmetic, or nested calls.
- To run several tools at once, write several Action: lines in the same reply.
- Tool output will be sent back to you in a follow-up message. When you have everything you need, reply with your final answer and no Action: lines.`

// SystemPrompt builds the engine's system prompt from the registry:
// one line per tool with its call signature and description, followed
// by the wire-format instructions.
func SystemPrompt(botName string, reg *tools.Registry) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, systemHeader, botName)

	for _, t := range reg.List() {
		desc := t.Description
		if desc == "" {
			desc = "No description provided."
		}
		fmt.Fprintf(&sb, "- %s: %s\n", t.Signature(), desc)
	}

	sb.WriteString(systemInstructions)
	return sb.String()
}
