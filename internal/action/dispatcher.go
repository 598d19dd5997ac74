// Package action implements the dialogue-action layer around the
// knowledge-base core: a named-action executor, the collecting dispatcher
// actions use to send messages back to the user, and the knowledge-base
// query action itself.
package action

// Message is a single response collected while an action runs. Exactly
// which fields are set depends on the Utter* method that produced it.
type Message struct {
	Text       string           `json:"text,omitempty"`
	Template   string           `json:"template,omitempty"`
	Buttons    []map[string]any `json:"buttons,omitempty"`
	Custom     map[string]any   `json:"custom,omitempty"`
	Attachment string           `json:"attachment,omitempty"`
	Image      string           `json:"image,omitempty"`
}

// CollectingDispatcher collects the messages an action wants to send back
// to the user. A fresh dispatcher is created per action run; the executor
// returns the collected messages in the webhook response.
type CollectingDispatcher struct {
	Messages []Message
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *CollectingDispatcher {
	return &CollectingDispatcher{}
}

// UtterMessage sends a plain text message to the output channel.
func (d *CollectingDispatcher) UtterMessage(text string) {
	d.Messages = append(d.Messages, Message{Text: text})
}

// UtterTemplate sends a message identified by a response template name;
// the orchestrating layer picks the template variant and locale.
func (d *CollectingDispatcher) UtterTemplate(template string) {
	d.Messages = append(d.Messages, Message{Template: template})
}

// UtterButtonMessage sends a text message with buttons.
func (d *CollectingDispatcher) UtterButtonMessage(text string, buttons []map[string]any) {
	d.Messages = append(d.Messages, Message{Text: text, Buttons: buttons})
}

// UtterCustomJSON sends a custom JSON payload to the output channel.
func (d *CollectingDispatcher) UtterCustomJSON(custom map[string]any) {
	d.Messages = append(d.Messages, Message{Custom: custom})
}

// UtterAttachment sends a message with an attachment.
func (d *CollectingDispatcher) UtterAttachment(attachment string) {
	d.Messages = append(d.Messages, Message{Attachment: attachment})
}

// UtterImageURL sends an image URL to the output channel.
func (d *CollectingDispatcher) UtterImageURL(image string) {
	d.Messages = append(d.Messages, Message{Image: image})
}
