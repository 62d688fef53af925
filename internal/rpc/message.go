package rpc

import (
	"fmt"

	"github.com/goccy/go-json"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Runtime actions.
const (
	ActionFetchStreamerStatus = "fetchStreamerStatus"
	ActionSetBadgeText        = "setBadgeText"
	ActionSetBadgeCount       = "setBadgeCount"
	ActionGetBadge            = "getBadge"
	ActionPing                = "ping"
)

// FetchStreamerStatus asks for the status of every username.
type FetchStreamerStatus struct {
	Action    string   `json:"action"`
	Usernames []string `json:"usernames"`
}

// SetBadgeText enables (true) or clears (false) the badge.
type SetBadgeText struct {
	Action       string `json:"action"`
	SetBadgeText bool   `json:"setBadgeText"`
}

type SetBadgeCount struct {
	Action string `json:"action"`
	Count  int    `json:"count"`
}

// Simple is a message with no fields besides the action.
type Simple struct {
	Action string `json:"action"`
}

// BadgeState is the getBadge response.
type BadgeState struct {
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
	Count   int    `json:"count"`
}

// Pong is the ping response.
type Pong struct {
	Profile  string `json:"profile"`
	UptimeMs int64  `json:"uptimeMs"`
}

// Ack is the response to actions with no result.
type Ack struct {
	OK bool `json:"ok"`
}

// EncodeStruct converts a message into a Struct through its JSON form.
func EncodeStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return s, nil
}

// DecodeStruct fills v from s.
func DecodeStruct(s *structpb.Struct, v any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}

// EncodeValue converts a response into a Value. A nil v encodes as null.
func EncodeValue(v any) (*structpb.Value, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	val := &structpb.Value{}
	if err := protojson.Unmarshal(data, val); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return val, nil
}

// DecodeValue fills v from val. A null value leaves v untouched.
func DecodeValue(val *structpb.Value, v any) error {
	if val == nil {
		return nil
	}
	if _, ok := val.GetKind().(*structpb.Value_NullValue); ok {
		return nil
	}
	data, err := protojson.Marshal(val)
	if err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ActionOf returns the action name of msg, or "" when absent.
func ActionOf(msg *structpb.Struct) string {
	return msg.GetFields()["action"].GetStringValue()
}
