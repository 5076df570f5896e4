package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ID identifies products and orders. Catalog ids historically arrived both as
// JSON numbers and as strings, so every constructor canonicalises numeric
// forms: 17, "17", "17.0" and 17.0 all produce the same ID.
type ID string

// numericID matches the plain decimal text NewID canonicalises. Exponents
// and overlong digit runs are kept verbatim.
var numericID = regexp.MustCompile(`^-?[0-9]{1,24}(\.[0-9]{1,12})?$`)

// NewID canonicalises a raw identifier string.
func NewID(raw string) ID {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if !numericID.MatchString(s) {
		return ID(s)
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return ID(d.String())
	}
	return ID(s)
}

// IDFromInt builds an ID from an integer identifier.
func IDFromInt(n int64) ID {
	return ID(strconv.FormatInt(n, 10))
}

// IDFrom accepts the representations a collaborator may hand us.
func IDFrom(v any) (ID, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case ID:
		return NewID(string(x)), nil
	case string:
		return NewID(x), nil
	case int:
		return IDFromInt(int64(x)), nil
	case int32:
		return IDFromInt(int64(x)), nil
	case int64:
		return IDFromInt(x), nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return "", fmt.Errorf("domain: id %v is not a finite number", x)
		}
		return NewID(strconv.FormatFloat(x, 'f', -1, 64)), nil
	case json.Number:
		return NewID(x.String()), nil
	default:
		return "", fmt.Errorf("domain: unsupported id type %T", v)
	}
}

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id == "" }

func (id ID) String() string { return string(id) }

// UnmarshalJSON accepts both JSON strings and JSON numbers.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("domain: decode id: %w", err)
		}
		*id = NewID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("domain: decode id: %w", err)
	}
	*id = NewID(n.String())
	return nil
}
