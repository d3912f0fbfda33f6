package batch

import (
	"encoding/json"
	"testing"
)

func TestParseEditResponse(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		kind  Kind
		items []ItemResult
	}{
		{name: "status only", raw: `{"status": "STATUS_SUCCEEDED"}`, kind: KindNoDetail},
		{name: "empty object", raw: `{}`, kind: KindNoDetail},
		{name: "empty result list", raw: `{"playlistEditResults": []}`, kind: KindNoDetail},
		{name: "null result list", raw: `{"playlistEditResults": null}`, kind: KindNoDetail},
		{name: "array", raw: `[{"status": "OK"}]`, kind: KindUnexpected},
		{name: "string", raw: `"done"`, kind: KindUnexpected},
		{name: "null", raw: `null`, kind: KindUnexpected},
		{name: "garbage", raw: `<html>`, kind: KindUnexpected},
		{
			name: "per item markers",
			raw: `{"playlistEditResults": [
				{"status": "STATUS_SUCCEEDED"},
				{"status": "OK"},
				{"playlistEditVideoAddedResultData": {"videoId": "a", "setVideoId": "s"}},
				{"status": "STATUS_FAILED"},
				{"error": {"message": "video unavailable"}},
				{},
				"junk",
				{"playlistEditVideoAddedResultData": {}}
			]}`,
			kind: KindPerItem,
			items: []ItemResult{
				{OK: true},
				{OK: true},
				{OK: true},
				{Reason: "STATUS_FAILED"},
				{Reason: "video unavailable"},
				{Reason: "unknown"},
				{Reason: "unknown"},
				{Reason: "unknown"},
			},
		},
		{
			name:  "raw results key",
			raw:   `{"playlistEditResultsRaw": [{"status": "OK"}]}`,
			kind:  KindPerItem,
			items: []ItemResult{{OK: true}},
		},
		{
			name:  "responses key",
			raw:   `{"responses": [{"status": "DENIED"}]}`,
			kind:  KindPerItem,
			items: []ItemResult{{Reason: "DENIED"}},
		},
		{
			name:  "first list key wins",
			raw:   `{"responses": [{"status": "DENIED"}], "playlistEditResults": [{"status": "OK"}]}`,
			kind:  KindPerItem,
			items: []ItemResult{{OK: true}},
		},
		{
			name:  "non list key is skipped",
			raw:   `{"playlistEditResults": "n/a", "responses": [{"status": "OK"}]}`,
			kind:  KindPerItem,
			items: []ItemResult{{OK: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseEditResponse(json.RawMessage(tt.raw))
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if len(got.Items) != len(tt.items) {
				t.Fatalf("Items = %+v, want %+v", got.Items, tt.items)
			}
			for i := range tt.items {
				if got.Items[i] != tt.items[i] {
					t.Errorf("Items[%d] = %+v, want %+v", i, got.Items[i], tt.items[i])
				}
			}
		})
	}
}
