package querycache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyDeterministicOrder(t *testing.T) {
	t.Parallel()

	a := Key("/api/vendor", Params{"status": "pending", "page": 1})
	b := Key("/api/vendor", Params{"page": 1, "status": "pending"})
	require.Equal(t, a, b)
}

func TestKeyOmitsNilParameters(t *testing.T) {
	t.Parallel()

	withNil := Key("/api/vendor", Params{"status": nil, "page": 1})
	without := Key("/api/vendor", Params{"page": 1})
	require.Equal(t, without, withNil)
}

func TestKeyNoParameters(t *testing.T) {
	t.Parallel()

	require.Equal(t, "/api/vendor", Key("/api/vendor", nil))
	require.Equal(t, "/api/vendor", Key("/api/vendor", Params{}))
}

func TestKeyExpandsSlices(t *testing.T) {
	t.Parallel()

	key := Key("/api/attendance", Params{"employee_id": []int{7, 3}})
	require.Equal(t, "/api/attendance?employee_id=3&employee_id=7", key)

	// Slice order must not matter.
	other := Key("/api/attendance", Params{"employee_id": []int{3, 7}})
	require.Equal(t, key, other)
}

func TestKeyValueKinds(t *testing.T) {
	t.Parallel()

	key := Key("/api/report", Params{
		"active":   true,
		"page":     int64(2),
		"ratio":    0.5,
		"statuses": []string{"done", "open"},
	})
	require.Equal(t, "/api/report?active=true&page=2&ratio=0.5&statuses=done&statuses=open", key)
}

func TestParamsValuesUsableForRequest(t *testing.T) {
	t.Parallel()

	values := Params{"page": 2, "status": "approved"}.Values()
	require.Equal(t, "2", values.Get("page"))
	require.Equal(t, "approved", values.Get("status"))
}
