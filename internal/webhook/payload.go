package webhook

import (
	"encoding/json"
	"errors"
	"strings"
)

// The voice platform delivers every tool invocation as a webhook POST.
// The body shape has drifted across platform versions: arguments arrive
// either nested under "function" or flat, and either as a JSON object or
// as a string containing JSON. The parser accepts all observed variants.

var ErrMalformedRequest = errors.New("webhook: malformed request")

// Invocation is one tool call to answer. Args stays raw; each step
// decodes it into its own typed struct.
type Invocation struct {
	ID   string
	Name string
	Args json.RawMessage
}

// Payload is the parsed webhook body.
type Payload struct {
	CallID      string
	CallerPhone string
	Invocations []Invocation
}

type rawToolCall struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Function *struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
	Arguments json.RawMessage `json:"arguments"`
}

type rawBody struct {
	Message struct {
		Call struct {
			ID       string `json:"id"`
			Customer struct {
				Number string `json:"number"`
			} `json:"customer"`
		} `json:"call"`
		Customer struct {
			Number string `json:"number"`
		} `json:"customer"`
		ToolCallList []rawToolCall `json:"toolCallList"`
		ToolCalls    []rawToolCall `json:"toolCalls"`
	} `json:"message"`
}

// Parse decodes a webhook body. A missing call id or an empty tool list
// is malformed as a whole; per-invocation problems (missing name, bad
// arguments) are reported per result by the handler instead.
func Parse(body []byte) (Payload, error) {
	var raw rawBody
	if err := json.Unmarshal(body, &raw); err != nil {
		return Payload{}, ErrMalformedRequest
	}

	calls := raw.Message.ToolCallList
	if len(calls) == 0 {
		calls = raw.Message.ToolCalls
	}
	if raw.Message.Call.ID == "" || len(calls) == 0 {
		return Payload{}, ErrMalformedRequest
	}

	phone := raw.Message.Call.Customer.Number
	if phone == "" {
		phone = raw.Message.Customer.Number
	}

	p := Payload{CallID: raw.Message.Call.ID, CallerPhone: phone}
	for _, tc := range calls {
		inv := Invocation{ID: tc.ID, Name: tc.Name, Args: tc.Arguments}
		if tc.Function != nil {
			if inv.Name == "" {
				inv.Name = tc.Function.Name
			}
			if len(inv.Args) == 0 {
				inv.Args = tc.Function.Arguments
			}
		}
		p.Invocations = append(p.Invocations, inv)
	}
	return p, nil
}

// decodeArgs fills dst from raw arguments, unwrapping the
// string-encoded-JSON variant first.
func decodeArgs(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return ErrMalformedRequest
		}
		raw = json.RawMessage(inner)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return ErrMalformedRequest
	}
	return nil
}
