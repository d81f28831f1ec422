package agent

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/uavquery/queryengine/pkg/message"
)

func TestTrimNoOpUnderSoftLimit(t *testing.T) {
	messages := make([]message.Message, SoftMessageLimit-1)
	trimmed := trim(messages)
	assert.Len(t, trimmed, SoftMessageLimit-1)
}

func TestTrimRetainsInitialUserLastToolPerNameAndLastTurns(t *testing.T) {
	var messages []message.Message
	messages = append(messages, message.Message{Role: message.RoleUser, Content: "initial question"})
	for i := 0; i < 50; i++ {
		messages = append(messages, message.Message{Role: message.RoleAssistant, Content: fmt.Sprintf("turn %d", i)})
		messages = append(messages, message.Message{Role: message.RoleTool, ToolName: "retrieve_datcom_archive", Content: fmt.Sprintf("obs %d", i)})
	}

	trimmed := trim(messages)
	assert.Less(t, len(trimmed), len(messages))
	assert.Equal(t, "initial question", trimmed[0].Content)

	found := false
	for _, m := range trimmed {
		if m.Role == message.RoleTool && m.Content == "obs 49" {
			found = true
		}
	}
	assert.True(t, found, "last tool message per name must be retained")

	last := messages[len(messages)-1]
	var sawLast bool
	for _, m := range trimmed {
		if m == last {
			sawLast = true
		}
	}
	assert.True(t, sawLast, "last turn must be retained")
}
