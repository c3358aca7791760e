package models

import "time"

// Event represents an AWS EventBridge event carrying a CloudTrail record
// in its Detail field.
type Event struct {
	ID         string         `json:"id"`
	Time       time.Time      `json:"time"`
	Region     string         `json:"region"`
	Source     string         `json:"source"`
	Account    string         `json:"account"`
	Version    string         `json:"version"`
	Detail     map[string]any `json:"detail"`
	DetailType string         `json:"detail-type"`
	Resources  []string       `json:"resources"`
}

// DetailString returns the named top-level field of the CloudTrail detail
// payload, or the empty string when absent or not a string.
func (e *Event) DetailString(key string) string {
	if e.Detail == nil {
		return ""
	}
	s, _ := e.Detail[key].(string)
	return s
}

// EventSource returns the CloudTrail eventSource of the wrapped record.
func (e *Event) EventSource() string {
	return e.DetailString("eventSource")
}

// EventName returns the CloudTrail eventName of the wrapped record.
func (e *Event) EventName() string {
	return e.DetailString("eventName")
}
