package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Response is a decoded search-engine response.
type Response struct {
	Took         int                    `json:"took"`
	Hits         HitList                `json:"hits"`
	Aggregations map[string]Aggregation `json:"aggregations,omitempty"`
}

// HitList is the hits envelope of a response.
type HitList struct {
	Total Total    `json:"total"`
	Hits  []RawHit `json:"hits"`
}

// Total is the total hit count; older engines send a bare number.
type Total struct {
	Value    int    `json:"value"`
	Relation string `json:"relation,omitempty"`
}

// UnmarshalJSON accepts both {"value": n} and n.
func (t *Total) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		if bytes.Equal(data, []byte("null")) {
			*t = Total{}
			return nil
		}
		n, err := strconv.Atoi(string(data))
		if err != nil {
			return fmt.Errorf("decode total: %w", err)
		}
		*t = Total{Value: n}
		return nil
	}
	type plain Total
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("decode total: %w", err)
	}
	*t = Total(p)
	return nil
}

// RawHit is a hit as returned by the engine.
type RawHit struct {
	ID        string              `json:"_id"`
	Score     *float64            `json:"_score"`
	Source    json.RawMessage     `json:"_source,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// Aggregation holds the buckets of one facet aggregation.
type Aggregation struct {
	Buckets []Bucket `json:"buckets"`
}

// UnmarshalJSON accepts plain {"buckets": [...]} and the global+filter
// shape {"filtered": {"values": {"buckets": [...]}}}.
func (a *Aggregation) UnmarshalJSON(data []byte) error {
	var raw struct {
		Buckets  []Bucket `json:"buckets"`
		Filtered *struct {
			Values *struct {
				Buckets []Bucket `json:"buckets"`
			} `json:"values"`
		} `json:"filtered"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode aggregation: %w", err)
	}
	a.Buckets = raw.Buckets
	if a.Buckets == nil && raw.Filtered != nil && raw.Filtered.Values != nil {
		a.Buckets = raw.Filtered.Values.Buckets
	}
	return nil
}

// UnmarshalJSON accepts string and numeric bucket keys, preferring
// key_as_string when present.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key         json.RawMessage `json:"key"`
		KeyAsString string          `json:"key_as_string"`
		DocCount    int             `json:"doc_count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode bucket: %w", err)
	}
	b.DocCount = raw.DocCount
	switch {
	case raw.KeyAsString != "":
		b.Key = raw.KeyAsString
	case len(raw.Key) > 0 && raw.Key[0] == '"':
		if err := json.Unmarshal(raw.Key, &b.Key); err != nil {
			return fmt.Errorf("decode bucket key: %w", err)
		}
	default:
		b.Key = string(raw.Key)
	}
	return nil
}

// Results converts raw hits into result hits. Never nil.
func (r Response) Results() []Hit {
	hits := make([]Hit, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		hits = append(hits, Hit(h))
	}
	return hits
}

// Buckets flattens aggregations into facet key -> buckets.
func (r Response) Buckets() map[string][]Bucket {
	out := make(map[string][]Bucket, len(r.Aggregations))
	for k, a := range r.Aggregations {
		out[k] = a.Buckets
	}
	return out
}
