package bronze

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	merrors "github.com/xtxerr/medallion/internal/errors"
	"github.com/xtxerr/medallion/internal/model"
)

// ParseProducts decodes the Products field of an order: a JSON array of
// objects carrying ProductID and Quantity. An empty field, "null" and "[]"
// yield an empty sequence. Values written with single-quoted strings are
// accepted as well.
//
// Entries keep their position. ProductID may be a string or a number and is
// normalized with NormalizeID; Quantity must be integral. A key that is
// absent or unusable leaves that field nil; anything other than an array is
// a row validation error.
func ParseProducts(s string) ([]model.LineItem, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "null" {
		return []model.LineItem{}, nil
	}

	entries, err := decodeArray(s)
	if err != nil && strings.ContainsRune(s, '\'') {
		entries, err = decodeArray(singleToDoubleQuotes(s))
	}
	if err != nil {
		return nil, merrors.NewRowError("products", err.Error())
	}

	items := make([]model.LineItem, len(entries))
	for i, raw := range entries {
		items[i] = parseEntry(raw)
	}
	return items, nil
}

func decodeArray(s string) ([]json.RawMessage, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var entries []json.RawMessage
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("not a JSON array: %v", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("trailing data after array")
	}
	if entries == nil {
		entries = []json.RawMessage{}
	}
	return entries, nil
}

func parseEntry(raw json.RawMessage) model.LineItem {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var obj map[string]any
	if err := dec.Decode(&obj); err != nil || obj == nil {
		return model.LineItem{}
	}

	item := model.LineItem{}
	if v, ok := lookup(obj, "ProductID"); ok {
		item.ProductID = toID(v)
	}
	if v, ok := lookup(obj, "Quantity"); ok {
		item.Quantity = toInt64(v)
	}
	return item
}

// lookup finds key exactly, then case-insensitively in sorted key order.
func lookup(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.EqualFold(k, key) {
			return obj[k], true
		}
	}
	return nil, false
}

// toID coerces a JSON string or number into a normalized ID. An integral
// number written with a fraction, such as 10.0, becomes the integer ID.
func toID(v any) *string {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
		if n := toInt64(x); n != nil {
			s = strconv.FormatInt(*n, 10)
		}
	case string:
		s = x
	default:
		return nil
	}
	return model.StringPtr(model.NormalizeID(s))
}

// toInt64 coerces an integral JSON number or numeric string.
func toInt64(v any) *int64 {
	var s string
	switch x := v.(type) {
	case json.Number:
		s = x.String()
	case string:
		s = strings.TrimSpace(x)
	default:
		return nil
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return nil
	}
	n := int64(f)
	return &n
}

// singleToDoubleQuotes rewrites a literal that uses single-quoted strings
// (and None for null) into JSON.
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var quote rune
	escaped := false
	for i, r := range s {
		switch {
		case quote == 0:
			switch r {
			case '\'', '"':
				quote = r
				b.WriteRune('"')
			default:
				if r == 'N' && strings.HasPrefix(s[i:], "None") {
					b.WriteString("null")
					continue
				}
				if inNone(s, i) {
					continue
				}
				b.WriteRune(r)
			}
		case escaped:
			escaped = false
			if r == '\'' {
				b.WriteRune('\'')
			} else {
				b.WriteRune('\\')
				b.WriteRune(r)
			}
		case r == '\\':
			escaped = true
		case r == quote:
			quote = 0
			b.WriteRune('"')
		case r == '"':
			b.WriteString(`\"`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// inNone reports whether byte i lies inside a "None" token started before i.
func inNone(s string, i int) bool {
	for k := 1; k <= 3 && i-k >= 0; k++ {
		if strings.HasPrefix(s[i-k:], "None") {
			return true
		}
	}
	return false
}
