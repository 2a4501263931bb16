package core

import (
	"encoding/json"
	"fmt"
)

// Part type discriminators used in the JSON wire format.
const (
	partTypeText             = "text"
	partTypeData             = "data"
	partTypeFunctionCall     = "function_call"
	partTypeFunctionResponse = "function_response"
)

type contentJSON struct {
	Role  string            `json:"role"`
	Name  string            `json:"name,omitempty"`
	Parts []json.RawMessage `json:"parts"`
}

// MarshalPartJSON marshals a single Part into its "type"-tagged envelope.
func MarshalPartJSON(p Part) ([]byte, error) {
	switch v := p.(type) {
	case TextPart:
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{partTypeText, v.Text})
	case DataPart:
		return json.Marshal(struct {
			Type string         `json:"type"`
			Data map[string]any `json:"data"`
		}{partTypeData, v.Data})
	case FunctionCallPart:
		return json.Marshal(struct {
			Type string       `json:"type"`
			Call FunctionCall `json:"function_call"`
		}{partTypeFunctionCall, v.FunctionCall})
	case FunctionResponsePart:
		return json.Marshal(struct {
			Type     string           `json:"type"`
			Response FunctionResponse `json:"function_response"`
		}{partTypeFunctionResponse, v.FunctionResponse})
	default:
		return nil, fmt.Errorf("unknown part type: %T", p)
	}
}

// UnmarshalPartJSON decodes a single Part from its envelope.
func UnmarshalPartJSON(data []byte) (Part, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal part envelope: %w", err)
	}

	switch env.Type {
	case partTypeText:
		var v struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return TextPart{Text: v.Text}, nil
	case partTypeData:
		var v struct {
			Data map[string]any `json:"data"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return DataPart{Data: v.Data}, nil
	case partTypeFunctionCall:
		var v struct {
			Call FunctionCall `json:"function_call"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return FunctionCallPart{FunctionCall: v.Call}, nil
	case partTypeFunctionResponse:
		var v struct {
			Response FunctionResponse `json:"function_response"`
		}
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return FunctionResponsePart{FunctionResponse: v.Response}, nil
	default:
		return nil, fmt.Errorf("unknown part type %q", env.Type)
	}
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	out := contentJSON{Role: c.Role, Name: c.Name, Parts: make([]json.RawMessage, 0, len(c.Parts))}
	for _, p := range c.Parts {
		raw, err := MarshalPartJSON(p)
		if err != nil {
			return nil, err
		}
		out.Parts = append(out.Parts, raw)
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	var in contentJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Role = in.Role
	c.Name = in.Name
	c.Parts = make([]Part, 0, len(in.Parts))
	for _, raw := range in.Parts {
		p, err := UnmarshalPartJSON(raw)
		if err != nil {
			return err
		}
		c.Parts = append(c.Parts, p)
	}
	return nil
}
