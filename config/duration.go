package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML and JSON configs can use
// human-readable values like "30s" or "5m".
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String renders the duration in time.Duration notation.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalYAML accepts either a duration string or an integer
// nanosecond count.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var asInt int64
	if err := value.Decode(&asInt); err == nil {
		*d = Duration(asInt)
		return nil
	}

	var asString string
	if err := value.Decode(&asString); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}

	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalJSON accepts either a duration string or an integer
// nanosecond count.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var asInt int64
	if err := json.Unmarshal(data, &asInt); err == nil {
		*d = Duration(asInt)
		return nil
	}

	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("invalid duration value: %s", data)
	}

	parsed, err := time.ParseDuration(asString)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", asString, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalJSON renders the duration as a string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
