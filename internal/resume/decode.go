package resume

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// DecodeFields maps a decoded JSON object onto target using its json tags.
// Unknown keys are ignored and a null field counts as missing. Numbers are
// never turned into strings, and string lists must hold only strings.
func DecodeFields(src map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     target,
		DecodeHook: strictStrings,
	})
	if err != nil {
		return err
	}

	return decoder.Decode(src)
}

var stringType = reflect.TypeOf("")

func strictStrings(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch {
	case to == stringType:
		if _, ok := data.(json.Number); ok {
			return nil, fmt.Errorf("expected string, got number %v", data)
		}
	case to.Kind() == reflect.Slice && to.Elem() == stringType:
		items, ok := data.([]any)
		if !ok {
			return data, nil
		}
		for i, item := range items {
			if _, ok := item.(string); !ok {
				return nil, fmt.Errorf("element %d: expected string, got %T", i, item)
			}
		}
	}

	return data, nil
}
