package tooling

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// JSONOperations parses, queries and builds JSON documents.
func JSONOperations() *Capability {
	return NewCapability("json_operations").
		Add("parse_json", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("parse_json", args, 1, 1); err != nil {
				return "", err
			}
			return ParseJSON(args[0]), nil
		}).
		Add("get_json_value", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("get_json_value", args, 2, 2); err != nil {
				return "", err
			}
			return GetJSONValue(args[0], args[1]), nil
		}).
		Add("create_json", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("create_json", args, 1, -1); err != nil {
				return "", err
			}
			return CreateJSON(strings.Join(args, ", ")), nil
		}).
		Add("to_json", func(ctx context.Context, args ...string) (string, error) {
			if err := checkArgs("to_json", args, 1, -1); err != nil {
				return "", err
			}
			return ToJSON(strings.Join(args, ", ")), nil
		})
}

// ParseJSON validates s and re-indents it.
func ParseJSON(s string) string {
	out, err := reindent(s)
	if err != nil {
		return fmt.Sprintf("Error parsing JSON: %v", err)
	}
	return out
}

// GetJSONValue returns the value stored under key in the JSON object s.
// String values are returned bare, anything else as compact JSON.
func GetJSONValue(s, key string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		var probe any
		if perr := json.Unmarshal([]byte(s), &probe); perr != nil {
			return fmt.Sprintf("Error parsing JSON: %v", perr)
		}
		return fmt.Sprintf("Key '%s' not found in JSON data", key)
	}
	raw, ok := obj[key]
	if !ok {
		return fmt.Sprintf("Key '%s' not found in JSON data", key)
	}
	var str string
	if json.Unmarshal(raw, &str) == nil {
		return str
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// CreateJSON builds an object from "key: value" pairs separated by commas.
// Values are kept as strings.
func CreateJSON(pairs string) string {
	obj, err := parsePairs(pairs, false)
	if err != nil {
		return fmt.Sprintf("Error creating JSON: %v", err)
	}
	out, err := obj.indent()
	if err != nil {
		return fmt.Sprintf("Error creating JSON: %v", err)
	}
	return out
}

// ToJSON re-indents valid JSON, or converts "key: value" pairs into an object,
// turning numeric values into numbers.
func ToJSON(s string) string {
	if out, err := reindent(s); err == nil {
		return out
	}
	obj, err := parsePairs(s, true)
	if err == nil {
		err = checkPairKeys(s)
	}
	if err != nil {
		return fmt.Sprintf("Error converting to JSON: %v", err)
	}
	out, err := obj.indent()
	if err != nil {
		return fmt.Sprintf("Error converting to JSON: %v", err)
	}
	return out
}

func reindent(s string) (string, error) {
	trimmed := strings.TrimSpace(s)
	if !json.Valid([]byte(trimmed)) {
		var probe any
		if err := json.Unmarshal([]byte(trimmed), &probe); err != nil {
			return "", err
		}
		return "", errors.New("invalid JSON")
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(trimmed)); err != nil {
		return "", err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

type member struct {
	key   string
	value any
}

// orderedObject keeps keys in first-insertion order; later duplicates overwrite.
type orderedObject struct {
	members []member
	index   map[string]int
}

func (o *orderedObject) set(key string, value any) {
	if o.index == nil {
		o.index = make(map[string]int)
	}
	if i, ok := o.index[key]; ok {
		o.members[i].value = value
		return
	}
	o.index[key] = len(o.members)
	o.members = append(o.members, member{key: key, value: value})
}

func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o.members {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := marshalNoEscape(m.key)
		if err != nil {
			return nil, err
		}
		v, err := marshalNoEscape(m.value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *orderedObject) indent() (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(o); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func parsePairs(s string, coerce bool) (*orderedObject, error) {
	obj := &orderedObject{}
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("pair %q is missing a ':' separator", pair)
		}
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if coerce {
			obj.set(key, coerceNumber(value))
			continue
		}
		obj.set(key, value)
	}
	return obj, nil
}

// checkPairKeys rejects text that only splits into pairs by accident: empty or
// whitespace-bearing keys (prose, numbered lines) and scheme separators in URLs.
func checkPairKeys(s string) error {
	for _, pair := range strings.Split(s, ",") {
		key, value, _ := strings.Cut(strings.TrimSpace(pair), ":")
		key = strings.TrimSpace(key)
		switch {
		case key == "":
			return fmt.Errorf("pair %q has an empty key", pair)
		case strings.ContainsFunc(key, unicode.IsSpace):
			return fmt.Errorf("key %q contains whitespace", key)
		case strings.HasPrefix(strings.TrimSpace(value), "//"):
			return fmt.Errorf("pair %q looks like a URL", strings.TrimSpace(pair))
		}
	}
	return nil
}

// coerceNumber converts integer then float literals; anything else stays a string.
func coerceNumber(v string) any {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return json.Number(strconv.FormatInt(i, 10))
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return v
}
