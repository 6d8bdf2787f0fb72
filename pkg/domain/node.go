package domain

// Node kind constants define the control flow behavior of each step.
const (
	// NodeSendText delivers an interpolated message and continues immediately.
	NodeSendText = "send-text"
	// NodeAPICall invokes an external HTTP endpoint and branches on the outcome.
	NodeAPICall = "api-call"
	// NodeAIQuery requests a completion from the AI service and branches on the outcome.
	NodeAIQuery = "ai-query"
	// NodeSetVariable writes an interpolated value into the session variables.
	NodeSetVariable = "set-variable"
	// NodeButtonChoice sends a prompt with selectable options and halts for a reply.
	NodeButtonChoice = "button-choice"
	// NodeWaitForInput sends an optional prompt and halts until the contact replies.
	NodeWaitForInput = "wait-for-input"
)

// Node represents a single step in a flow graph.
type Node struct {
	ID   string `json:"id" yaml:"id"`
	Kind string `json:"kind" yaml:"kind"` // e.g., "send-text", "button-choice"

	// Config holds the kind-specific configuration (message text, URL, prompt...).
	// The runtime decodes it into a typed struct per kind.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`

	// Meta carries presentational data from the authoring UI (canvas position,
	// colors). The engine ignores it entirely.
	Meta map[string]any `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// IsWaiting reports whether the node kind suspends traversal until the next
// inbound message. Unrecognized kinds are not waiting; they are handled as
// unimplemented by the executor.
func (n *Node) IsWaiting() bool {
	return n.Kind == NodeButtonChoice || n.Kind == NodeWaitForInput
}

// SendTextConfig configures a send-text node.
type SendTextConfig struct {
	Text string `mapstructure:"text"`
}

// APICallConfig configures an api-call node.
type APICallConfig struct {
	URL      string            `mapstructure:"url"`
	Method   string            `mapstructure:"method"`
	Headers  map[string]string `mapstructure:"headers"`
	Body     map[string]any    `mapstructure:"body"`
	Variable string            `mapstructure:"variable"` // optional: where to store the response
}

// AIQueryConfig configures an ai-query node.
type AIQueryConfig struct {
	Prompt   string `mapstructure:"prompt"`
	System   string `mapstructure:"system"`
	Variable string `mapstructure:"variable"` // optional: where to store the completion
}

// SetVariableConfig configures a set-variable node.
type SetVariableConfig struct {
	Variable string `mapstructure:"variable"`
	Value    string `mapstructure:"value"`
}

// ButtonOption is one selectable choice offered by a button-choice node.
// The option ID doubles as the source-handle of the edge taken when the
// contact replies with the option label.
type ButtonOption struct {
	ID    string `json:"id" mapstructure:"id"`
	Label string `json:"label" mapstructure:"label"`
}

// ButtonChoiceConfig configures a button-choice node.
type ButtonChoiceConfig struct {
	Text    string         `mapstructure:"text"`
	Options []ButtonOption `mapstructure:"options"`
}

// WaitForInputConfig configures a wait-for-input node.
type WaitForInputConfig struct {
	Prompt   string `mapstructure:"prompt"` // optional
	Variable string `mapstructure:"variable"`
}
