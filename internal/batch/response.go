package batch

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Kind tags the shape of a playlist edit response.
type Kind int

const (
	// KindUnexpected is anything that is not a JSON object. Every id of the call counts as failed.
	KindUnexpected Kind = iota
	// KindNoDetail is an object without per-item results. Every id of the call counts as added,
	// since the catalog gives no way to tell an accepted item from a silently dropped one.
	KindNoDetail
	// KindPerItem is an object carrying a non-empty list of per-item results.
	KindPerItem
)

func (k Kind) String() string {
	switch k {
	case KindNoDetail:
		return "no_detail"
	case KindPerItem:
		return "per_item"
	default:
		return "unexpected"
	}
}

const (
	reasonUnknown    = "unknown"
	reasonUnexpected = "unexpected_response_type"
	reasonException  = "exception:"
)

// keys that may hold per-item results, in lookup order
var resultKeys = []string{"playlistEditResults", "playlistEditResultsRaw", "responses"}

// ItemResult is the classified outcome of one submitted id.
type ItemResult struct {
	OK     bool
	Reason string
}

// EditResponse is a parsed playlist edit response.
type EditResponse struct {
	Kind  Kind
	Items []ItemResult
}

// ParseEditResponse classifies a raw add-items response.
//
// The first of playlistEditResults, playlistEditResultsRaw and responses that holds
// a list decides the shape: a non-empty list is [KindPerItem], an empty one or no
// list at all is [KindNoDetail].
func ParseEditResponse(raw json.RawMessage) EditResponse {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return EditResponse{Kind: KindUnexpected}
	}

	for _, key := range resultKeys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		var list []json.RawMessage
		if err := json.Unmarshal(v, &list); err != nil || list == nil {
			continue
		}
		if len(list) == 0 {
			break
		}

		items := make([]ItemResult, len(list))
		for i, item := range list {
			items[i] = classifyItem(item)
		}
		return EditResponse{Kind: KindPerItem, Items: items}
	}

	return EditResponse{Kind: KindNoDetail}
}

// classifyItem treats an item as added when its status is a success marker or it
// carries video-added data. Otherwise the reason is the status, then error.message.
func classifyItem(raw json.RawMessage) ItemResult {
	var item map[string]json.RawMessage
	if err := json.Unmarshal(raw, &item); err != nil || item == nil {
		return ItemResult{Reason: reasonUnknown}
	}

	status := text(item["status"])
	if status == "STATUS_SUCCEEDED" || status == "OK" || truthy(item["playlistEditVideoAddedResultData"]) {
		return ItemResult{OK: true}
	}

	if status != "" {
		return ItemResult{Reason: status}
	}

	var apiErr struct {
		Message json.RawMessage `json:"message"`
	}
	if e, ok := item["error"]; ok && json.Unmarshal(e, &apiErr) == nil {
		if msg := text(apiErr.Message); msg != "" {
			return ItemResult{Reason: msg}
		}
	}
	return ItemResult{Reason: reasonUnknown}
}

// text returns a JSON string's value, or the raw literal of any other truthy value.
func text(raw json.RawMessage) string {
	if !truthy(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

// truthy reports whether raw is present and not null, false, zero or empty.
func truthy(raw json.RawMessage) bool {
	switch v := strings.TrimSpace(string(raw)); v {
	case "", "null", "false", "0", `""`, "[]", "{}":
		return false
	default:
		if strings.HasPrefix(v, "{") || strings.HasPrefix(v, "[") {
			var anyVal any
			if err := json.Unmarshal(raw, &anyVal); err != nil {
				return false
			}
			switch x := anyVal.(type) {
			case map[string]any:
				return len(x) > 0
			case []any:
				return len(x) > 0
			}
		}
		return true
	}
}
