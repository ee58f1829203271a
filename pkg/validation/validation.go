// Package validation checks untrusted input: inspector commands arriving over
// the debug socket, body tags and group names from scene files, and whole
// simulation configurations before a World is built from them.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/go-broadphase/pkg/physics"
)

// Limits for inspector traffic and identifiers
const (
	DefaultMaxMessageSize  = 4 * 1024
	DefaultCommandsPerSec  = 10
	MaxTagLen              = 64
	MaxGroupNameLen        = 32
	MaxSubscriptionFilters = 16
)

// Inspector command names
const (
	CommandSubscribe = "subscribe"
	CommandPause     = "pause"
	CommandResume    = "resume"
)

var (
	validGroupName = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_\-]*$`)
	validTagChars  = regexp.MustCompile(`^[a-zA-Z0-9\-_.:/]+$`)
)

// Command is a control message sent by an inspector client.
type Command struct {
	Type string   `json:"type" msgpack:"type"`
	Tags []string `json:"tags,omitempty" msgpack:"tags,omitempty"`
}

// MessageValidator validates inspector messages and rate limits them per client
type MessageValidator struct {
	maxSize     int
	perSecond   int
	rateLimiter *RateLimiter
}

// NewMessageValidator creates a validator that accepts messages of at most
// maxSize bytes and perSecond commands per client. Non-positive values use
// the package defaults.
func NewMessageValidator(maxSize, perSecond int) *MessageValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxMessageSize
	}
	if perSecond <= 0 {
		perSecond = DefaultCommandsPerSec
	}
	return &MessageValidator{
		maxSize:     maxSize,
		perSecond:   perSecond,
		rateLimiter: NewRateLimiter(perSecond, time.Second),
	}
}

// Close releases resources used by the message validator
func (v *MessageValidator) Close() {
	if v.rateLimiter != nil {
		v.rateLimiter.Close()
	}
}

// Forget drops the rate limiting state of a disconnected client.
func (v *MessageValidator) Forget(clientID string) {
	v.rateLimiter.Forget(clientID)
}

// ValidateMessage validates a raw message against size and format constraints
func (v *MessageValidator) ValidateMessage(data []byte, clientID string) error {
	if len(data) > v.maxSize {
		return fmt.Errorf("message too large: %d bytes (max %d)", len(data), v.maxSize)
	}

	if !json.Valid(data) {
		return fmt.Errorf("invalid JSON format")
	}

	if !v.rateLimiter.Allow(clientID) {
		return fmt.Errorf("rate limit exceeded: max %d commands per second", v.perSecond)
	}

	return nil
}

// ParseCommand validates data and decodes it into a Command with sanitized tags.
func (v *MessageValidator) ParseCommand(data []byte, clientID string) (*Command, error) {
	if err := v.ValidateMessage(data, clientID); err != nil {
		return nil, err
	}

	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	if err := ValidateCommand(&cmd); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// ValidateCommand checks the command type and sanitizes the tag filter in place.
func ValidateCommand(cmd *Command) error {
	switch cmd.Type {
	case CommandPause, CommandResume:
		if len(cmd.Tags) > 0 {
			return fmt.Errorf("%s takes no tags", cmd.Type)
		}
		return nil
	case CommandSubscribe:
	case "":
		return fmt.Errorf("command type cannot be empty")
	default:
		return fmt.Errorf("unknown command type: %q", cmd.Type)
	}

	if len(cmd.Tags) > MaxSubscriptionFilters {
		return fmt.Errorf("too many tag filters: %d (max %d)", len(cmd.Tags), MaxSubscriptionFilters)
	}
	for i, tag := range cmd.Tags {
		clean, err := ValidateTag(tag)
		if err != nil {
			return fmt.Errorf("tag filter %d: %w", i, err)
		}
		cmd.Tags[i] = clean
	}
	return nil
}

// ValidateTag validates and trims a body tag. Empty tags are allowed.
func ValidateTag(tag string) (string, error) {
	if len(tag) > MaxTagLen {
		return "", fmt.Errorf("tag too long: %d characters (max %d)", len(tag), MaxTagLen)
	}
	if !utf8.ValidString(tag) {
		return "", fmt.Errorf("tag contains invalid UTF-8 characters")
	}

	trimmed := strings.TrimSpace(tag)
	if trimmed == "" {
		return "", nil
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("tag contains control characters")
		}
	}

	if !validTagChars.MatchString(trimmed) {
		return "", fmt.Errorf("tag contains invalid characters (only alphanumeric and -_.:/ allowed)")
	}
	return trimmed, nil
}

// ValidateGroupName validates a collision group name
func ValidateGroupName(name string) error {
	if name == "" {
		return fmt.Errorf("group name cannot be empty")
	}
	if len(name) > MaxGroupNameLen {
		return fmt.Errorf("group name too long: %d characters (max %d)", len(name), MaxGroupNameLen)
	}
	if !validGroupName.MatchString(name) {
		return fmt.Errorf("invalid group name %q (must start with a letter; letters, digits, - and _ only)", name)
	}
	return nil
}

// ValidateElasticity checks that e is a finite, non-negative restitution
// factor. Values above 1 are allowed and add energy on every bounce.
func ValidateElasticity(e float64) error {
	if math.IsNaN(e) || math.IsInf(e, 0) {
		return fmt.Errorf("elasticity must be finite")
	}
	if e < 0 {
		return fmt.Errorf("elasticity cannot be negative: %v", e)
	}
	return nil
}

// ValidateSize checks that a body or bounds size is finite and non-negative.
func ValidateSize(size physics.Vector2D) error {
	if !finite(size.X) || !finite(size.Y) {
		return fmt.Errorf("size must be finite: %v", size)
	}
	if size.X < 0 || size.Y < 0 {
		return fmt.Errorf("size cannot be negative: %v", size)
	}
	return nil
}

// ValidateVector checks that both components of v are finite.
func ValidateVector(name string, v physics.Vector2D) error {
	if !finite(v.X) || !finite(v.Y) {
		return fmt.Errorf("%s must be finite: %v", name, v)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
