package intent

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kailas-cloud/facetsearch/internal/domain"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/facet"
	"github.com/kailas-cloud/facetsearch/internal/domain/search/order"
)

type envelope struct {
	Type    ActionType      `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// values decodes either a single string or a list of strings.
type values []string

func (v *values) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = values{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*v = list
	return nil
}

// DecodeAction decodes a {"type": ..., "payload": {...}} envelope.
func DecodeAction(data []byte) (Action, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err)
	}
	a, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrInvalidAction, env.Type, err)
	}
	return a, nil
}

// DecodeActions reads a stream of action envelopes: JSON lines,
// concatenated objects or JSON arrays of objects.
func DecodeActions(r io.Reader) ([]Action, error) {
	dec := json.NewDecoder(r)
	var out []Action
	for {
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err)
		}
		raw = bytes.TrimSpace(raw)
		if len(raw) > 0 && raw[0] == '[' {
			var list []json.RawMessage
			if err := json.Unmarshal(raw, &list); err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrInvalidAction, err)
			}
			for _, item := range list {
				a, err := DecodeAction(item)
				if err != nil {
					return nil, fmt.Errorf("action %d: %w", len(out), err)
				}
				out = append(out, a)
			}
			continue
		}
		a, err := DecodeAction(raw)
		if err != nil {
			return nil, fmt.Errorf("action %d: %w", len(out), err)
		}
		out = append(out, a)
	}
}

func decodePayload(t ActionType, payload json.RawMessage) (Action, error) {
	switch t {
	case TypeSetQuery:
		var p struct {
			Text string `json:"text"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return SetQuery(p), nil

	case TypeSetFacet:
		var p struct {
			Key     string `json:"key"`
			Value   values `json:"value"`
			Replace *bool  `json:"replace"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, errMissing("key")
		}
		replace := p.Replace == nil || *p.Replace
		return SetFacet{Key: p.Key, Values: p.Value, Replace: replace}, nil

	case TypeRemoveFacet:
		var p struct {
			Key   string  `json:"key"`
			Value *string `json:"value"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, errMissing("key")
		}
		return RemoveFacet(p), nil

	case TypeClearFacets:
		return ClearFacets{}, nil

	case TypeSetCustomFacet:
		var p struct {
			ID    string `json:"id"`
			Value values `json:"value"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errMissing("id")
		}
		return SetCustomFacet{ID: p.ID, Values: p.Value}, nil

	case TypeRemoveCustomFacet:
		var p struct {
			ID string `json:"id"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errMissing("id")
		}
		return RemoveCustomFacet(p), nil

	case TypeSetFacetOperator:
		var p struct {
			Key      string `json:"key"`
			Operator string `json:"operator"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		if p.Key == "" {
			return nil, errMissing("key")
		}
		op, ok := facet.ParseOperator(p.Operator)
		if !ok {
			return nil, fmt.Errorf("unknown operator %q", p.Operator)
		}
		return SetFacetOperator{Key: p.Key, Operator: op}, nil

	case TypeSetSort:
		var p struct {
			SortBy string `json:"sortBy"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		s, ok := order.Parse(p.SortBy)
		if !ok {
			return nil, fmt.Errorf("unknown sort %q", p.SortBy)
		}
		return SetSort{Sort: s}, nil

	case TypeSetPage:
		var p struct {
			Page int `json:"page"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return SetPage(p), nil

	case TypeSetLoading:
		var p struct {
			Loading bool `json:"loading"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return SetLoading(p), nil

	case TypeSetResults:
		var r Response
		if err := unmarshal(payload, &r); err != nil {
			return nil, err
		}
		return SetResults{Response: r}, nil

	case TypeSetError:
		var p struct {
			Message string `json:"message"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		return SetError(p), nil

	case TypeInitialize:
		var p struct {
			DefaultFilters []DefaultFilter `json:"defaultFilters"`
			DefaultQuery   string          `json:"defaultQuery"`
			DefaultSort    string          `json:"defaultSort"`
		}
		if err := unmarshal(payload, &p); err != nil {
			return nil, err
		}
		a := Initialize{DefaultFilters: p.DefaultFilters, DefaultQuery: p.DefaultQuery}
		if p.DefaultSort != "" {
			s, ok := order.Parse(p.DefaultSort)
			if !ok {
				return nil, fmt.Errorf("unknown sort %q", p.DefaultSort)
			}
			a.DefaultSort = s
		}
		return a, nil

	case TypeReset:
		return Reset{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", t)
}

// unmarshal treats an absent payload as an empty object.
func unmarshal(payload json.RawMessage, v any) error {
	if len(payload) == 0 || bytes.Equal(bytes.TrimSpace(payload), []byte("null")) {
		return nil
	}
	return json.Unmarshal(payload, v)
}

func errMissing(field string) error {
	return fmt.Errorf("missing %s", field)
}
