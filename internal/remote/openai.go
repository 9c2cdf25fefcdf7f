// ABOUTME: OpenAI Assistants API implementation of the remote Client
// ABOUTME: Maps threads/messages/runs operations onto the v2 beta endpoints

package remote

import (
	"context"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient implements Client against the OpenAI Assistants API.
type OpenAIClient struct {
	api    *openai.Client
	logger *slog.Logger
}

// NewOpenAIClient creates a client for the given API key. baseURL is optional
// and overrides the default endpoint (for proxies and tests).
func NewOpenAIClient(apiKey, baseURL string, logger *slog.Logger) *OpenAIClient {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:    openai.NewClientWithConfig(cfg),
		logger: logger.With("component", "remote"),
	}
}

// CreateThread opens a fresh conversation thread and returns its handle.
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.api.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", &Error{Op: "create thread", Err: err}
	}
	c.logger.Debug("thread created", "thread_id", thread.ID)
	return thread.ID, nil
}

// AppendMessage adds a user message to the thread.
func (c *OpenAIClient) AppendMessage(ctx context.Context, threadID, text string) error {
	_, err := c.api.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    RoleUser,
		Content: text,
	})
	if err != nil {
		return &Error{Op: "append message", Err: err}
	}
	return nil
}

// CreateRun starts an assistant execution against the thread's messages.
func (c *OpenAIClient) CreateRun(ctx context.Context, threadID, assistantID string) (string, error) {
	run, err := c.api.CreateRun(ctx, threadID, openai.RunRequest{
		AssistantID: assistantID,
	})
	if err != nil {
		return "", &Error{Op: "create run", Err: err}
	}
	c.logger.Debug("run created", "thread_id", threadID, "run_id", run.ID)
	return run.ID, nil
}

// GetRunStatus reports the run's current status verbatim. Statuses outside
// the closed set (requires_action, cancelling, ...) pass through unmapped.
func (c *OpenAIClient) GetRunStatus(ctx context.Context, threadID, runID string) (Status, error) {
	run, err := c.api.RetrieveRun(ctx, threadID, runID)
	if err != nil {
		return "", &Error{Op: "get run status", Err: err}
	}
	return Status(run.Status), nil
}

// ListMessages returns the thread's messages newest first, keeping only
// text segments.
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	list, err := c.api.ListMessage(ctx, threadID, nil, nil, nil, nil, nil)
	if err != nil {
		return nil, &Error{Op: "list messages", Err: err}
	}

	messages := make([]Message, 0, len(list.Messages))
	for _, m := range list.Messages {
		msg := Message{Role: m.Role}
		for _, content := range m.Content {
			if content.Type == "text" && content.Text != nil {
				msg.Parts = append(msg.Parts, content.Text.Value)
			}
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// DeleteThread releases the remote thread.
func (c *OpenAIClient) DeleteThread(ctx context.Context, threadID string) error {
	if _, err := c.api.DeleteThread(ctx, threadID); err != nil {
		return &Error{Op: "delete thread", Err: err}
	}
	c.logger.Debug("thread deleted", "thread_id", threadID)
	return nil
}
