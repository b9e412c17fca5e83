// Copyright (c) 2026 Musatech
// Sentry Monitoring - Sentry event export pipeline
// This source code is licensed under the MIT license found in the LICENSE file.

package sentry

import (
	"fmt"

	"github.com/Musatech/sentry-monitoring/internal/model"
)

// CleanQuotedStrings removes the extra single quotes Sentry's variable
// capture wraps around string values, so "'value'" becomes "value". It
// walks maps and slices recursively and passes every other type through
// untouched.
func CleanQuotedStrings(data any) any {
	switch v := data.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = CleanQuotedStrings(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = CleanQuotedStrings(elem)
		}
		return out
	case string:
		if len(v) >= 2 && v[0] == '\'' && v[len(v)-1] == '\'' {
			return v[1 : len(v)-1]
		}
		return v
	default:
		return v
	}
}

// CollectInfoFromEntries digs the captured request body out of an event's
// thread stack frames. The first frame variable named "body" found across
// all entries wins; an event without one yields a zero CollectInfo.
func CollectInfoFromEntries(entries []Entry) model.CollectInfo {
	for _, entry := range entries {
		for _, thread := range entry.Data.Values {
			for _, frame := range thread.Stacktrace.Frames {
				body, ok := frame.Vars["body"]
				if !ok {
					continue
				}
				return collectInfoFromBody(CleanQuotedStrings(body))
			}
		}
	}
	return model.CollectInfo{}
}

// collectInfoFromBody maps a cleaned body value to CollectInfo. Bodies
// that are not objects produce a zero value.
func collectInfoFromBody(body any) model.CollectInfo {
	fields, ok := body.(map[string]any)
	if !ok {
		return model.CollectInfo{}
	}
	return model.CollectInfo{
		ID:        stringField(fields, "id"),
		Material:  stringField(fields, "material"),
		Packaging: stringField(fields, "packaging"),
	}
}

// stringField renders a body field as a string. Numeric IDs show up in
// captured payloads, so anything non-nil is stringified.
func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
