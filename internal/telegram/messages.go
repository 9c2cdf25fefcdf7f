// ABOUTME: User-facing reply text for the Telegram transport
// ABOUTME: Maps engine outcomes and errors to short human messages

package telegram

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ai4business/advisor-bot/internal/assistant"
	"github.com/ai4business/advisor-bot/internal/engine"
	"github.com/ai4business/advisor-bot/internal/remote"
	"github.com/ai4business/advisor-bot/internal/session"
)

const (
	msgPickAdvisor        = "Pick an advisor to start a conversation:"
	msgNoActiveSession    = "You don't have an active conversation. Use /chat to pick an advisor."
	msgSessionEnded       = "Conversation ended. Use /chat whenever you want to start a new one."
	msgSessionStartFailed = "Couldn't start the conversation right now. Please try again in a moment."
	msgUnknownAdvisor     = "That advisor is not available."
	msgInternalError      = "Something went wrong on our side. Please try again."
	msgEmptyReply         = "The advisor had nothing to add. Try rephrasing your question."
	msgRunTimedOut        = "⏳ The advisor is taking too long to answer. Please try again."
	msgRunFailed          = "⚠️ The advisor couldn't process that message. Please try again."
	msgRemoteUnavailable  = "⚠️ The advisor service is unreachable right now. Please try again shortly."
	msgSuperseded         = "You started a new conversation, so the previous answer was discarded."
	msgNotRegistered      = "Please use /start first so I can set you up."
)

func welcomeMessage(name string) string {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi, " + name
	}
	return greeting + `! I connect you with business advisors.

Pick an advisor below to start a conversation, or use /help to see what I can do.`
}

func helpMessage(variants []assistant.Variant) string {
	var sb strings.Builder
	sb.WriteString(`Commands:
• /chat - pick an advisor and start a conversation
• /status - show which advisor you're talking to
• /end - end the current conversation
• /help - show this message

Available advisors:
`)
	for _, v := range variants {
		sb.WriteString("• ")
		sb.WriteString(v.DisplayName)
		if v.Description != "" {
			sb.WriteString(" - ")
			sb.WriteString(v.Description)
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nYou talk to one advisor at a time. Picking a new advisor ends the previous conversation.")
	return sb.String()
}

func sessionStartedMessage(v assistant.Variant) string {
	return fmt.Sprintf("✅ You're now talking to %s. Send a message to begin.", v.DisplayName)
}

func statusMessage(v assistant.Variant) string {
	return fmt.Sprintf("You're talking to %s. Use /end to finish or /chat to switch.", v.DisplayName)
}

// replyForSendError maps a SendMessage error to user-facing text. The second
// return is true when the error is unexpected and should propagate instead.
func replyForSendError(err error) (string, bool) {
	var runFailed *engine.RunFailedError
	switch {
	case errors.Is(err, session.ErrNoSession):
		return msgNoActiveSession, false
	case errors.Is(err, engine.ErrSessionSuperseded):
		return msgSuperseded, false
	case errors.Is(err, engine.ErrRunTimedOut):
		return msgRunTimedOut, false
	case errors.As(err, &runFailed):
		return msgRunFailed, false
	case remote.IsRemote(err):
		return msgRemoteUnavailable, false
	default:
		return "", true
	}
}
