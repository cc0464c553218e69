package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidRecord is returned for lines that are not a user/assistant pair.
var ErrInvalidRecord = errors.New("invalid training record")

// Message is one turn of a training exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Record is one fine-tuning example: a user turn followed by an assistant turn.
type Record struct {
	Messages []Message `json:"messages"`
}

// Question returns the user turn.
func (r Record) Question() string { return r.Messages[0].Content }

// Answer returns the assistant turn.
func (r Record) Answer() string { return r.Messages[1].Content }

const recordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["messages"],
  "properties": {
    "messages": {
      "type": "array",
      "minItems": 2,
      "maxItems": 2,
      "prefixItems": [
        {"$ref": "#/$defs/user"},
        {"$ref": "#/$defs/assistant"}
      ]
    }
  },
  "$defs": {
    "user": {
      "type": "object",
      "required": ["role", "content"],
      "properties": {"role": {"const": "user"}, "content": {"type": "string"}}
    },
    "assistant": {
      "type": "object",
      "required": ["role", "content"],
      "properties": {"role": {"const": "assistant"}, "content": {"type": "string"}}
    }
  }
}`

var compiledRecordSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", strings.NewReader(recordSchema)); err != nil {
		return nil, fmt.Errorf("failed to load record schema: %w", err)
	}
	return compiler.Compile("record.json")
})

// ParseRecord validates one JSONL line and returns the record with its
// canonical key. The key is the line re-encoded token by token: whitespace
// and string escapes do not matter, field order and extra fields do.
func ParseRecord(line string) (Record, string, error) {
	raw := []byte(strings.TrimSpace(line))
	if len(raw) == 0 {
		return Record{}, "", fmt.Errorf("%w: empty line", ErrInvalidRecord)
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Record{}, "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	schema, err := compiledRecordSchema()
	if err != nil {
		return Record{}, "", err
	}
	if err := schema.Validate(doc); err != nil {
		return Record{}, "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}

	key, err := canonicalKey(raw)
	if err != nil {
		return Record{}, "", fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return rec, key, nil
}

// canonicalKey re-encodes a JSON document in its original field order with
// every string written in one escaping. Numbers keep their literal text.
func canonicalKey(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	type level struct {
		object bool
		n      int
	}
	var (
		out   bytes.Buffer
		stack []level
	)
	str := json.NewEncoder(&out)
	str.SetEscapeHTML(false)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out.String(), nil
		}
		if err != nil {
			return "", err
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			out.WriteByte(byte(d))
			continue
		}
		if top := len(stack) - 1; top >= 0 {
			switch {
			case stack[top].object && stack[top].n%2 == 1:
				out.WriteByte(':')
			case stack[top].n > 0:
				out.WriteByte(',')
			}
			stack[top].n++
		}

		switch v := tok.(type) {
		case json.Delim:
			out.WriteByte(byte(v))
			stack = append(stack, level{object: v == '{'})
		case string:
			if err := str.Encode(v); err != nil {
				return "", err
			}
			out.Truncate(out.Len() - 1) // Encode appends a newline
		case json.Number:
			out.WriteString(v.String())
		case bool:
			out.WriteString(strconv.FormatBool(v))
		case nil:
			out.WriteString("null")
		}
	}
}
