package optimizer

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// ErrNoJSONObject is returned when a model answer holds no {...} span.
var ErrNoJSONObject = errors.New("no JSON object in model response")

// payloadTime is the only time shape accepted from the model.
var payloadTime = regexp.MustCompile(`^\d{2}:\d{2}-\d{2}:\d{2}$`)

var payloadFields = []string{"time", "task", "completion"}

// ValidationError pinpoints the first payload element that broke the
// contract. Index is -1 when the problem is the key or the list itself.
type ValidationError struct {
	Key    string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Key == "":
		return "invalid payload: " + e.Reason
	case e.Index < 0:
		return fmt.Sprintf("invalid payload at %q: %s", e.Key, e.Reason)
	default:
		return fmt.Sprintf("invalid payload at %q[%d]: %s", e.Key, e.Index, e.Reason)
	}
}

// ExtractPayload decodes the text between the first '{' and the last '}' of
// raw. Models often wrap their JSON in prose or code fences.
func ExtractPayload(raw string) (map[string]any, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, ErrNoJSONObject
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return nil, errors.Wrap(err, "decode model JSON")
	}
	return payload, nil
}

// ValidatePayload checks the whole payload and fails on the first violation:
// keys must be YYYY-MM-DD, values lists of objects with string time, task and
// completion, and every time must read HH:MM-HH:MM.
func ValidatePayload(payload any) error {
	days, ok := payload.(map[string]any)
	if !ok {
		return &ValidationError{Index: -1, Reason: fmt.Sprintf("expected an object, got %T", payload)}
	}

	for key, value := range days {
		if !normalize.IsDateKey(key) {
			return &ValidationError{Key: key, Index: -1, Reason: "key is not a YYYY-MM-DD date"}
		}
		list, ok := value.([]any)
		if !ok {
			return &ValidationError{Key: key, Index: -1, Reason: fmt.Sprintf("expected a list, got %T", value)}
		}
		for i, item := range list {
			if reason := validateActivity(item); reason != "" {
				return &ValidationError{Key: key, Index: i, Reason: reason}
			}
		}
	}
	return nil
}

func validateActivity(item any) string {
	activity, ok := item.(map[string]any)
	if !ok {
		return fmt.Sprintf("expected an object, got %T", item)
	}
	for _, field := range payloadFields {
		value, present := activity[field]
		if !present {
			return "missing field " + field
		}
		if _, isString := value.(string); !isString {
			return fmt.Sprintf("field %s is %T, not a string", field, value)
		}
	}
	if t := activity["time"].(string); !payloadTime.MatchString(t) {
		return fmt.Sprintf("time %q is not HH:MM-HH:MM", t)
	}
	return ""
}

// ToDays converts a validated payload. Times are normalized to the store's
// canonical spacing, so "09:00-10:00" becomes "09:00 - 10:00".
func ToDays(payload map[string]any) store.Days {
	days := make(store.Days, len(payload))
	for key, value := range payload {
		list, _ := value.([]any)
		events := make([]store.Event, 0, len(list))
		for _, item := range list {
			activity, _ := item.(map[string]any)
			events = append(events, store.Event{
				Time:       normalize.Time(stringField(activity, "time")),
				Task:       stringField(activity, "task"),
				Completion: stringField(activity, "completion"),
			})
		}
		days[key] = events
	}
	return days
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
