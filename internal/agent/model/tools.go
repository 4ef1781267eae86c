package model

// Endpoint identifies one of the configured remote tool endpoints.
type Endpoint string

const (
	EndpointProductSearch Endpoint = "product_search"
	EndpointOrders        Endpoint = "orders"
)

// ToolCall is a request record for one remote tool invocation.
type ToolCall struct {
	Endpoint  Endpoint
	Name      string
	Arguments map[string]any
}

// ToolResult is the structured success payload of a tool call: a JSON object or list.
// Failures are reported as errors, never as partially valid results.
type ToolResult struct {
	Payload any
}

// Object returns the payload as a JSON object, if it is one.
func (r *ToolResult) Object() (map[string]any, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := r.Payload.(map[string]any)
	return m, ok
}

// List returns the payload as a JSON list, if it is one.
func (r *ToolResult) List() ([]any, bool) {
	if r == nil {
		return nil, false
	}
	l, ok := r.Payload.([]any)
	return l, ok
}

// Product is the catalogue entry shape served by the mock tool server.
type Product struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	ProductType string    `json:"product_type"`
	Description string    `json:"description"`
	Tags        []string  `json:"tags,omitempty"`
	Variants    []Variant `json:"variants"`
	Available   bool      `json:"available"`
}

type Variant struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Price string `json:"price"`
}
