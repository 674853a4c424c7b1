package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Version is the envelope version written by Encode.
const Version = 1

// maxUnwrap bounds how many JSON string layers Decode peels off. Older
// clients stored the array after encoding it twice.
const maxUnwrap = 2

type Format string

const (
	FormatEmpty         Format = "empty"
	FormatVersioned     Format = "versioned"
	FormatArray         Format = "array"
	FormatDoubleEncoded Format = "double-encoded"
	FormatLegacy        Format = "legacy"
	FormatInvalid       Format = "invalid"
)

type record struct {
	Type   Type   `json:"type"`
	Config Config `json:"config"`
}

type envelope struct {
	Version int      `json:"version"`
	Blocks  []record `json:"blocks"`
}

var legacyToken = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Encode serializes blocks to the canonical stored form: a single JSON
// object carrying the format version and the {type, config} records.
func Encode(list []Block) (string, error) {
	env := envelope{Version: Version, Blocks: make([]record, 0, len(list))}
	for _, b := range list {
		cfg := b.Config
		if cfg == nil {
			cfg = Config{}
		}
		env.Blocks = append(env.Blocks, record{Type: b.Type, Config: cfg})
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode template: %w", err)
	}
	return string(raw), nil
}

// Decode parses a stored template string. It never fails: malformed input
// yields an empty or partial list.
func Decode(s string) []Block {
	list, _ := DecodeFormat(s)
	return list
}

// DecodeFormat is Decode that also reports which stored form was recognised.
func DecodeFormat(s string) ([]Block, Format) {
	text := strings.TrimSpace(s)
	if text == "" {
		return []Block{}, FormatEmpty
	}

	unwrapped := 0
	for {
		raw := []byte(text)
		if !json.Valid(raw) {
			if list, ok := decodeLegacy(text); ok {
				return list, FormatLegacy
			}
			return []Block{}, FormatInvalid
		}

		var inner string
		if err := json.Unmarshal(raw, &inner); err == nil {
			if unwrapped == maxUnwrap {
				return []Block{}, FormatInvalid
			}
			unwrapped++
			text = strings.TrimSpace(inner)
			if text == "" {
				return []Block{}, FormatEmpty
			}
			continue
		}

		list, format := decodeJSON(raw)
		if unwrapped > 0 && format != FormatInvalid {
			format = FormatDoubleEncoded
		}
		return list, format
	}
}

func decodeJSON(raw []byte) ([]Block, Format) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []Block{}, FormatInvalid
	}
	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return []Block{}, FormatInvalid
		}
		return fromRecords(items), FormatArray
	case '{':
		var env struct {
			Version int               `json:"version"`
			Blocks  []json.RawMessage `json:"blocks"`
		}
		if err := json.Unmarshal(trimmed, &env); err != nil || env.Blocks == nil {
			return []Block{}, FormatInvalid
		}
		return fromRecords(env.Blocks), FormatVersioned
	default:
		return []Block{}, FormatInvalid
	}
}

// fromRecords keeps every item that is an object with a string type.
func fromRecords(items []json.RawMessage) []Block {
	out := make([]Block, 0, len(items))
	for _, item := range items {
		var rec struct {
			Type   *string         `json:"type"`
			Config json.RawMessage `json:"config"`
		}
		if err := json.Unmarshal(item, &rec); err != nil || rec.Type == nil {
			continue
		}
		cfg := Config{}
		if len(rec.Config) > 0 {
			var m map[string]any
			if err := json.Unmarshal(rec.Config, &m); err == nil && m != nil {
				cfg = m
			}
		}
		out = append(out, Block{ID: uuid.NewString(), Type: Type(*rec.Type), Config: cfg})
	}
	return out
}

func decodeLegacy(text string) ([]Block, bool) {
	parts := strings.Split(text, ",")
	out := make([]Block, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !legacyToken.MatchString(p) {
			return nil, false
		}
		out = append(out, New(Type(p)))
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Normalize rewrites any accepted stored form into the canonical encoding.
// Blank input stays blank.
func Normalize(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	return Encode(Decode(s))
}
