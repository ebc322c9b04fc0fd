package querycache

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
)

// Params holds the query parameters of a read operation. Values may be
// strings, integers, booleans, or slices thereof. Nil values and empty
// slices are omitted from the derived key, matching the treatment of
// undefined parameters in request URLs.
type Params map[string]any

// Key derives the stable cache key for an endpoint and its parameters.
// Parameter names are sorted, so maps built in any order produce the same
// key, and slice values expand to repeated key=value pairs.
func Key(endpoint string, params Params) string {
	values := params.Values()
	if len(values) == 0 {
		return endpoint
	}
	return endpoint + "?" + values.Encode()
}

// Values normalizes the parameters into url.Values, ready for both key
// derivation and the outbound request. url.Values.Encode sorts by key.
func (p Params) Values() url.Values {
	values := url.Values{}
	for name, v := range p {
		appendValue(values, name, v)
	}
	return values
}

func appendValue(values url.Values, name string, v any) {
	switch val := v.(type) {
	case nil:
		// Omitted, like an undefined query parameter.
	case string:
		values.Add(name, val)
	case bool:
		values.Add(name, strconv.FormatBool(val))
	case int:
		values.Add(name, strconv.Itoa(val))
	case int64:
		values.Add(name, strconv.FormatInt(val, 10))
	case float64:
		values.Add(name, strconv.FormatFloat(val, 'f', -1, 64))
	case []string:
		// Copy before sorting so the caller's slice is untouched.
		sorted := append([]string(nil), val...)
		sort.Strings(sorted)
		for _, s := range sorted {
			values.Add(name, s)
		}
	case []int:
		sorted := append([]int(nil), val...)
		sort.Ints(sorted)
		for _, n := range sorted {
			values.Add(name, strconv.Itoa(n))
		}
	case fmt.Stringer:
		values.Add(name, val.String())
	default:
		values.Add(name, fmt.Sprintf("%v", val))
	}
}
