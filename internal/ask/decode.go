package ask

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Row is one result record. Columns keep the order the service sent them in;
// Values[i] belongs to Columns[i].
type Row struct {
	Columns []string
	Values  []any
}

// MarshalJSON writes the row as an object with its original key order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		var value any
		if i < len(r.Values) {
			value = r.Values[i]
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnexpectedDataMessage explains an empty table when data is neither rows nor
// an error object.
const UnexpectedDataMessage = "unexpected data payload"

type envelope struct {
	fields map[string]json.RawMessage
}

// DecodeResponse parses a service body. The body must be a JSON object; any
// other JSON value is rejected. Missing or null fields decode to their zero
// values.
func DecodeResponse(body []byte) (Response, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return Response{}, err
	}
	return env.response()
}

func decodeEnvelope(body []byte) (envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return envelope{}, errors.New("empty response body")
	}
	if trimmed[0] != '{' {
		return envelope{}, fmt.Errorf("response body is not a JSON object")
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return envelope{}, err
	}
	return envelope{fields: fields}, nil
}

func (e envelope) response() (Response, error) {
	answer, err := e.text("answer")
	if err != nil {
		return Response{}, fmt.Errorf("answer: %w", err)
	}
	sql, err := e.text("sql")
	if err != nil {
		return Response{}, fmt.Errorf("sql: %w", err)
	}
	rows, dataErr, err := decodeRows(e.fields["data"])
	if err != nil {
		return Response{}, fmt.Errorf("data: %w", err)
	}
	return Response{Answer: answer, SQL: sql, Rows: rows, DataError: dataErr}, nil
}

// text reads a field as display text. Strings are returned as-is, null and
// absent fields as "", anything else in its JSON form.
func (e envelope) text(key string) (string, error) {
	raw, ok := e.fields[key]
	if !ok {
		return "", nil
	}
	value, err := decodeValue(raw)
	if err != nil {
		return "", err
	}
	if value == nil {
		return "", nil
	}
	return FormatValue(value), nil
}

// errorMessage returns the first non-empty string among the fields a service
// uses to report a problem.
func (e envelope) errorMessage(keys ...string) string {
	for _, key := range keys {
		raw, ok := e.fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (e envelope) has(key string) bool {
	raw, ok := e.fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeValue(raw json.RawMessage) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	return value, nil
}

func decodeRows(raw json.RawMessage) ([]Row, string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, "", nil
	}
	switch trimmed[0] {
	case '[':
	case '{':
		// An object in place of rows is how the service reports a failed
		// execution, e.g. {"error": "..."}.
		env := envelope{fields: map[string]json.RawMessage{}}
		if err := json.Unmarshal(trimmed, &env.fields); err != nil {
			return nil, "", err
		}
		return nil, env.errorMessage("error", "detail", "message"), nil
	default:
		return nil, UnexpectedDataMessage, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return nil, "", err
	}
	rows := []Row{}
	for dec.More() {
		var elem json.RawMessage
		if err := dec.Decode(&elem); err != nil {
			return nil, "", err
		}
		row, err := decodeRow(elem)
		if err != nil {
			return nil, "", err
		}
		rows = append(rows, row)
	}
	if _, err := dec.Token(); err != nil {
		return nil, "", err
	}
	return rows, "", nil
}

// decodeRow keeps key order, which encoding/json maps would lose. Elements
// that are not objects have no keys and yield an empty row.
func decodeRow(raw json.RawMessage) (Row, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Row{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}
	var row Row
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return Row{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return Row{}, fmt.Errorf("unexpected object key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return Row{}, err
		}
		row.Columns = append(row.Columns, key)
		row.Values = append(row.Values, value)
	}
	if _, err := dec.Token(); err != nil {
		return Row{}, err
	}
	return row, nil
}

// FormatValue converts a decoded JSON value to display text: numbers keep
// their wire literal, null is "null", nested values render as compact JSON.
func FormatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "null"
	case string:
		return value
	case json.Number:
		return value.String()
	case bool:
		if value {
			return "true"
		}
		return "false"
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(raw)
	}
}
