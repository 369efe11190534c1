package crm

import (
	"fmt"
	"strconv"
)

// Record is one row returned by a SOQL query, keyed by field name.
type Record map[string]any

// String renders field as display text. Missing and null fields are empty.
func (r Record) String(field string) string {
	switch v := r[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
