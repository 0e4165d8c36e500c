package mcp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Some clients send every argument as a string. The Flex types accept the
// native JSON value or its string spelling.

type FlexBool bool

func (fb *FlexBool) UnmarshalJSON(data []byte) error {
	v, err := decodeFlex(data, "boolean", func(s string) (bool, error) {
		switch strings.ToLower(s) {
		case "true", "1", "yes", "x":
			return true, nil
		}
		return false, nil
	})
	*fb = FlexBool(v)
	return err
}

type FlexInt int

func (fi *FlexInt) UnmarshalJSON(data []byte) error {
	v, err := decodeFlex(data, "integer", strconv.Atoi)
	*fi = FlexInt(v)
	return err
}

type FlexFloat float64

func (ff *FlexFloat) UnmarshalJSON(data []byte) error {
	v, err := decodeFlex(data, "number", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
	*ff = FlexFloat(v)
	return err
}

func decodeFlex[T any](data []byte, kind string, parse func(string) (T, error)) (T, error) {
	var v T
	if err := json.Unmarshal(data, &v); err == nil {
		return v, nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := parse(strings.TrimSpace(s)); err == nil {
			return parsed, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("expected %s or string, got %s", kind, string(data))
}
