// Package yamlutil decodes configuration YAML with a size limit and
// position-annotated errors.
package yamlutil

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// MaxInputSize limits YAML input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

var (
	ErrNilData        = errors.New("yamlutil: nil or empty data")
	ErrNilDestination = errors.New("yamlutil: nil destination pointer")
	ErrInputTooLarge  = errors.New("yamlutil: input exceeds maximum size")
)

// DecodeError is a parse failure with the offending position in its message.
type DecodeError struct {
	Msg string
	Err error
}

func (e *DecodeError) Error() string { return "yamlutil: " + e.Msg }

func (e *DecodeError) Unwrap() error { return e.Err }

func validateInput(data []byte, v any) error {
	if len(data) == 0 {
		return ErrNilData
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	}
	if v == nil {
		return ErrNilDestination
	}
	return nil
}

// Unmarshal decodes data into v, ignoring unknown fields.
func Unmarshal(data []byte, v any) error {
	return decode(data, v)
}

// UnmarshalStrict rejects unknown fields and duplicate keys.
func UnmarshalStrict(data []byte, v any) error {
	return decode(data, v, yaml.Strict(), yaml.DisallowDuplicateKey())
}

func decode(data []byte, v any, opts ...yaml.DecodeOption) error {
	if err := validateInput(data, v); err != nil {
		return err
	}
	if err := yaml.UnmarshalWithOptions(data, v, opts...); err != nil {
		return &DecodeError{Msg: yaml.FormatError(err, false, false), Err: err}
	}
	return nil
}
