package domain

// Payload is what the engine asks the messaging transport to deliver.
// It is either plain text or text accompanied by selectable options; no other
// shapes are required by the core.
type Payload struct {
	Text    string         `json:"text"`
	Options []ButtonOption `json:"options,omitempty"`
}

// TextPayload builds a plain text payload.
func TextPayload(text string) Payload {
	return Payload{Text: text}
}

// OptionsPayload builds a text payload with selectable options.
func OptionsPayload(text string, options []ButtonOption) Payload {
	return Payload{Text: text, Options: options}
}
