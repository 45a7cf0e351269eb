package aigoogle

import (
	"context"
	"testing"

	"github.com/Abraxas-365/supportdesk/pkg/ai/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	contents, config := buildRequest([]llm.Message{
		llm.NewSystemMessage("you are a classifier"),
		llm.NewUserMessage("refund please"),
		llm.NewAssistantMessage("which order?"),
	}, llm.Options{Temperature: 0, MaxTokens: 256, JSONMode: true})

	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
	assert.Equal(t, "refund please", contents[0].Parts[0].Text)

	require.NotNil(t, config.SystemInstruction)
	assert.Equal(t, "you are a classifier", config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, int32(256), config.MaxOutputTokens)
	assert.Equal(t, "application/json", config.ResponseMIMEType)
	require.NotNil(t, config.Temperature)
	assert.Equal(t, float32(0), *config.Temperature)
}

func TestNewGoogleProvider_RequiresKey(t *testing.T) {
	_, err := NewGoogleProvider(context.Background(), "")
	assert.Error(t, err)
}
