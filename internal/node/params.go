package node

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mitchellh/mapstructure"
)

const (
	locatorModeID   = "id"
	locatorModeList = "list"
	locatorModeURL  = "url"
)

var resourceIDPattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

// OperationRequest is the per-item view a handler reads its parameters from.
// Accessors never modify Parameters.
type OperationRequest struct {
	Resource   Resource
	Operation  Operation
	ItemIndex  int
	Parameters map[string]any
}

func newOperationRequest(route Route, index int, params map[string]any) OperationRequest {
	copied := make(map[string]any, len(params))
	for key, value := range params {
		copied[key] = value
	}

	return OperationRequest{
		Resource:   route.Resource,
		Operation:  route.Operation,
		ItemIndex:  index,
		Parameters: copied,
	}
}

// String returns the named parameter, or def when it is absent.
func (r OperationRequest) String(name, def string) (string, error) {
	value := def

	err := r.decode(name, &value)
	if err != nil {
		return "", err
	}

	return value, nil
}

// RequiredString returns the named parameter and fails when it is absent or
// blank.
func (r OperationRequest) RequiredString(name string) (string, error) {
	value, err := r.String(name, "")
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingRequiredParameter, name)
	}

	return value, nil
}

// Bool returns the named parameter, or def when it is absent.
func (r OperationRequest) Bool(name string, def bool) (bool, error) {
	value := def

	err := r.decode(name, &value)
	if err != nil {
		return false, err
	}

	return value, nil
}

// Int returns the named parameter, or def when it is absent.
func (r OperationRequest) Int(name string, def int) (int, error) {
	value := def

	err := r.decode(name, &value)
	if err != nil {
		return 0, err
	}

	return value, nil
}

// Collection decodes a nested options collection into target. A missing
// collection leaves target unchanged. Unknown keys are ignored.
func (r OperationRequest) Collection(name string, target any) error {
	raw, ok := r.Parameters[name]
	if !ok || raw == nil {
		return nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "param",
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder for %q: %w", name, err)
	}

	err = decoder.Decode(raw)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidParameter, name, err)
	}

	return nil
}

// resourceLocator is the {mode, value} form of an id parameter.
type resourceLocator struct {
	Mode  string `param:"mode"`
	Value string `param:"value"`
}

// ResourceID reads an id parameter given either as a plain string or as a
// {mode, value} locator. Values entered in "id" mode must be 32 lowercase
// hex characters. An absent or empty id yields "".
func (r OperationRequest) ResourceID(name string) (string, error) {
	raw, ok := r.Parameters[name]
	if !ok || raw == nil {
		return "", nil
	}

	if plain, isString := raw.(string); isString {
		return strings.TrimSpace(plain), nil
	}

	var locator resourceLocator

	err := r.Collection(name, &locator)
	if err != nil {
		return "", err
	}

	value := strings.TrimSpace(locator.Value)

	switch locator.Mode {
	case locatorModeID:
		if value != "" && !resourceIDPattern.MatchString(value) {
			return "", fmt.Errorf("%w: %q must be a 32-character hexadecimal string", ErrInvalidParameter, name)
		}
	case locatorModeURL:
		value = value[strings.LastIndex(value, "/")+1:]
	case locatorModeList, "":
	default:
		return "", fmt.Errorf("%w: %q has unknown mode %q", ErrInvalidParameter, name, locator.Mode)
	}

	return value, nil
}

// RequiredResourceID is ResourceID that fails on an empty id.
func (r OperationRequest) RequiredResourceID(name string) (string, error) {
	value, err := r.ResourceID(name)
	if err != nil {
		return "", err
	}

	if value == "" {
		return "", fmt.Errorf("%w: %q", ErrMissingRequiredParameter, name)
	}

	return value, nil
}

func (r OperationRequest) decode(name string, target any) error {
	raw, ok := r.Parameters[name]
	if !ok || raw == nil {
		return nil
	}

	err := mapstructure.WeakDecode(raw, target)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidParameter, name, err)
	}

	return nil
}
