package agent

import "github.com/uavquery/queryengine/pkg/message"

const retainLastTurns = 4

// trim applies a deterministic context-growth bound: once the message
// list exceeds SoftMessageLimit, retain the initial user message, the
// last tool message per unique tool name, and the last retainLastTurns
// turns; drop everything else.
//
// "Turn" here means one message; the system prompt is passed separately
// to the chat client and is not part of this slice, so this operates
// purely on the accumulated transcript.
func trim(messages []message.Message) []message.Message {
	if len(messages) <= SoftMessageLimit {
		return messages
	}

	var initialUser *message.Message
	for i := range messages {
		if messages[i].Role == message.RoleUser {
			initialUser = &messages[i]
			break
		}
	}

	lastToolByName := map[string]int{}
	for i, m := range messages {
		if m.Role == message.RoleTool {
			lastToolByName[m.ToolName] = i
		}
	}

	keepIndex := make(map[int]bool)
	if initialUser != nil {
		for i := range messages {
			if &messages[i] == initialUser {
				keepIndex[i] = true
				break
			}
		}
	}
	for _, idx := range lastToolByName {
		keepIndex[idx] = true
	}

	lastN := retainLastTurns
	if lastN > len(messages) {
		lastN = len(messages)
	}
	for i := len(messages) - lastN; i < len(messages); i++ {
		keepIndex[i] = true
	}

	trimmed := make([]message.Message, 0, len(keepIndex))
	for i, m := range messages {
		if keepIndex[i] {
			trimmed = append(trimmed, m)
		}
	}
	return trimmed
}
