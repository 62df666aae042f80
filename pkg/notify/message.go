package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

// BuildOpsAlertMessage creates Block Kit blocks for an operational failure
// notification. The publish orchestrator sends one when a thread publish
// stops after posting only some of its tweets.
func BuildOpsAlertMessage(component, userID, message, dashboardURL string) []goslack.Block {
	headerText := fmt.Sprintf(":warning: *%s failed*", component)
	if userID != "" {
		headerText += fmt.Sprintf(" (user `%s`)", userID)
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		),
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(message), false, false),
			nil, nil,
		),
	}

	if dashboardURL != "" {
		btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "Open Dashboard", false, false))
		btn.URL = dashboardURL
		blocks = append(blocks, goslack.NewActionBlock("", btn))
	}

	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated)_"
}
