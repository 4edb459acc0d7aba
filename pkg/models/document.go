// pkg/models/document.go
package models

import (
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// decodeDocument maps a stored document onto out. Backends disagree on how
// they hand values back (Firestore: time.Time and int64, jsonb: strings and
// float64) so decoding is weakly typed and parses timestamp strings.
func decodeDocument(doc map[string]interface{}, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeHook,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(doc)
}

func timeHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		return time.Parse(time.RFC3339Nano, v)
	case *time.Time:
		if v == nil {
			return time.Time{}, nil
		}
		return *v, nil
	}
	return data, nil
}
