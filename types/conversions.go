package types

import (
	"encoding"
	"encoding/base64"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"

	"gopkg.in/inf.v0"
)

type fromDbFn func(value interface{}) (interface{}, error)

// FormatBindLog renders bind values for the transaction log, comma separated
func FormatBindLog(values []interface{}) string {
	var sb strings.Builder
	for i, v := range values {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(FormatBindValue(v))
	}
	return sb.String()
}

// FormatBindValue renders one bind value in a human readable form
func FormatBindValue(value interface{}) string {
	switch value := value.(type) {
	case nil:
		return "null"
	case string:
		return value
	case []byte:
		return base64.StdEncoding.EncodeToString(value)
	case time.Time:
		return value.Format(time.RFC3339Nano)
	case *time.Time:
		if value == nil {
			return "null"
		}
		return value.Format(time.RFC3339Nano)
	case *inf.Dec:
		if value == nil {
			return "null"
		}
		return value.String()
	case *big.Int:
		if value == nil {
			return "null"
		}
		return value.String()
	case fmt.Stringer:
		return value.String()
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return "null"
		}
		return FormatBindValue(rv.Elem().Interface())
	}
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]interface{}, rv.Len())
		for i := range parts {
			parts[i] = rv.Index(i).Interface()
		}
		return "[" + FormatBindLog(parts) + "]"
	}
	return fmt.Sprint(value)
}

// ToDbValue converts bind values the database/sql drivers do not accept natively
func ToDbValue(value interface{}) interface{} {
	switch value := value.(type) {
	case *inf.Dec:
		if value == nil {
			return nil
		}
		return value.String()
	case *big.Int:
		if value == nil {
			return nil
		}
		return value.String()
	default:
		return value
	}
}

func unmarshallerFromText(factory func() encoding.TextUnmarshaler) fromDbFn {
	return func(value interface{}) (interface{}, error) {
		var text []byte
		switch value := value.(type) {
		case string:
			text = []byte(value)
		case []byte:
			text = value
		default:
			return value, nil
		}
		t := factory()
		if err := t.UnmarshalText(text); err != nil {
			return nil, err
		}
		return t, nil
	}
}

var StringToTime = unmarshallerFromText(func() encoding.TextUnmarshaler {
	return &time.Time{}
})

var StringToDecimal = unmarshallerFromText(func() encoding.TextUnmarshaler {
	return &inf.Dec{}
})

var StringToBigInt = unmarshallerFromText(func() encoding.TextUnmarshaler {
	return &big.Int{}
})
