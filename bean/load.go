package bean

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/inf.v0"

	"github.com/datastax/ormquery/types"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(inf.Dec{})
	bigIntType  = reflect.TypeOf(big.Int{})
)

// Load sets the properties of bean from values keyed by property name. Driver
// values are converted weakly, e.g. int64 to int32 or []byte to string.
func (d *Descriptor) Load(bean interface{}, values map[string]interface{}) error {
	if _, err := d.value(bean); err != nil {
		return err
	}

	fields := make(map[string]interface{}, len(values))
	for name, value := range values {
		p, ok := d.byName[name]
		if !ok {
			return fmt.Errorf("unknown property %s on %s", name, d.name)
		}
		fields[p.Field] = value
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(textHook),
		WeaklyTypedInput: true,
		ZeroFields:       false,
		Result:           bean,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(fields)
}

// textHook converts the text form some drivers return for times, decimals and
// big integers
func textHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	for to.Kind() == reflect.Ptr {
		to = to.Elem()
	}

	var conv func(interface{}) (interface{}, error)
	switch to {
	case timeType:
		conv = types.StringToTime
	case decimalType:
		conv = types.StringToDecimal
	case bigIntType:
		conv = types.StringToBigInt
	default:
		return data, nil
	}

	switch from.Kind() {
	case reflect.String:
		return conv(data)
	case reflect.Slice:
		if from.Elem().Kind() == reflect.Uint8 {
			return conv(data)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if to != timeType {
			return conv(fmt.Sprint(data))
		}
	case reflect.Float32, reflect.Float64:
		if to != timeType {
			return conv(strconv.FormatFloat(reflect.ValueOf(data).Float(), 'f', -1, 64))
		}
	}
	return data, nil
}

// Diff compares two snapshots of the same bean type and returns the changed
// scalar properties as old (from older) and new (from newer) values
func (d *Descriptor) Diff(newer, older interface{}) (map[string]types.ValuePair, error) {
	nv, err := d.value(newer)
	if err != nil {
		return nil, err
	}
	ov, err := d.value(older)
	if err != nil {
		return nil, err
	}

	diff := make(map[string]types.ValuePair)
	for _, p := range d.properties {
		n := nv.FieldByIndex(p.index).Interface()
		o := ov.FieldByIndex(p.index).Interface()
		if !reflect.DeepEqual(n, o) {
			diff[p.Name] = types.ValuePair{Old: o, New: n}
		}
	}
	return diff, nil
}
