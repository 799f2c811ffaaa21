package queue

const TypeWebhookDeliver = "webhook:deliver"

// Prompt lifecycle events that can be subscribed to.
const (
	EventPromptCreated  = "prompt.created"
	EventPromptUpdated  = "prompt.updated"
	EventPromptDeleted  = "prompt.deleted"
	EventPromptExecuted = "prompt.executed"
)

type WebhookDeliverPayload struct {
	WebhookID string `json:"webhook_id"`
	URL       string `json:"url"`
	Secret    string `json:"secret"`
	Event     string `json:"event"`
	Body      string `json:"body"` // JSON string
}
