package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"siteqr/internal/models"
)

var errNotFinite = errors.New("value is not finite")

func lookup(r models.SiteRecord, field string) (any, error) {
	v, ok := r[field]
	if !ok || v == nil {
		return nil, &FieldMissingError{Field: field}
	}
	return v, nil
}

func textField(r models.SiteRecord, field string) (string, error) {
	v, err := lookup(r, field)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case fmt.Stringer:
		return t.String(), nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64, json.Number:
		return fmt.Sprint(t), nil
	}
	return "", &TypeConversionError{Field: field, Value: v, Target: "text"}
}

func floatField(r models.SiteRecord, field string) (float64, error) {
	v, err := lookup(r, field)
	if err != nil {
		return 0, err
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, &TypeConversionError{Field: field, Value: v, Target: "float64", Err: err}
	}
	return f, nil
}

// intField truncates fractional values toward zero ("150.0" and 150.7 both give 150).
func intField(r models.SiteRecord, field string) (int, error) {
	v, err := lookup(r, field)
	if err != nil {
		return 0, err
	}
	if s, ok := v.(string); ok {
		if n, perr := strconv.Atoi(strings.TrimSpace(s)); perr == nil {
			return n, nil
		}
	}
	f, err := toFloat(v)
	if err == nil && (f > math.MaxInt32 || f < math.MinInt32) {
		err = fmt.Errorf("%v out of range", f)
	}
	if err != nil {
		return 0, &TypeConversionError{Field: field, Value: v, Target: "int", Err: err}
	}
	return int(f), nil
}

func boolField(r models.SiteRecord, field string) (bool, error) {
	v, err := lookup(r, field)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "t", "true", "y", "yes":
			return true, nil
		case "0", "f", "false", "n", "no":
			return false, nil
		}
		return false, &TypeConversionError{Field: field, Value: v, Target: "bool"}
	}
	f, err := toFloat(v)
	if err != nil {
		return false, &TypeConversionError{Field: field, Value: v, Target: "bool", Err: err}
	}
	return f != 0, nil
}

func toFloat(v any) (float64, error) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int8:
		f = float64(t)
	case int16:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint8:
		f = float64(t)
	case uint16:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, err
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, err
		}
		f = n
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
	// NaN and Inf cannot be serialized into the payload.
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}
