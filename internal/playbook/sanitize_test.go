package playbook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(s), &v))
	return v
}

func encode(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"array of arrays", `[[1,2],[3,4]]`, `{"0":[1,2],"1":[3,4]}`},
		{"array of records", `[{"x":1},{"x":2}]`, `[{"x":1},{"x":2}]`},
		{"array of primitives", `[1,"a",true,null]`, `[1,"a",true,null]`},
		{"empty array", `[]`, `[]`},
		{"mixed array", `[[1],{"x":1}]`, `[[1],{"x":1}]`},
		{"nested in record", `{"points":[[0,0],[5,10]],"id":"r1"}`, `{"id":"r1","points":{"0":[0,0],"1":[5,10]}}`},
		{"three levels", `[[[1,2]],[[3,4],[5,6]]]`, `{"0":{"0":[1,2]},"1":{"0":[3,4],"1":[5,6]}}`},
		{"primitive", `"hello"`, `"hello"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(decode(t, tt.in))
			assert.JSONEq(t, tt.want, encode(t, got))
		})
	}
}

func TestSanitizeRoundTrip(t *testing.T) {
	inputs := []string{
		`[[1,2],[3,4]]`,
		`[[[1,2]],[[3,4],[5,6]]]`,
		`[[]]`,
		`{"routes":[{"points":[[0,0],[1,1],[2,4]]}]}`,
		`[[{"a":1}],[{"b":2}]]`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			v := decode(t, in)
			assert.JSONEq(t, in, encode(t, Desanitize(Sanitize(v))))
		})
	}
}

func TestSanitizeIdempotent(t *testing.T) {
	inputs := []string{
		`[{"x":1},{"x":2}]`,
		`[1,2,3]`,
		`{"a":{"b":[{"c":"d"}]}}`,
		`42`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			once := Sanitize(decode(t, in))
			twice := Sanitize(once)
			assert.JSONEq(t, in, encode(t, once))
			assert.JSONEq(t, encode(t, once), encode(t, twice))
		})
	}
}

func TestDesanitizeLeavesOrdinaryObjects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"non-index keys", `{"a":[1],"b":[2]}`},
		{"non-array values", `{"0":1,"1":2}`},
		{"leading zero", `{"00":[1]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.JSONEq(t, tt.in, encode(t, Desanitize(decode(t, tt.in))))
		})
	}
}

func TestDesanitizeOpaqueKey(t *testing.T) {
	in := `{"playerRouteAssociations":{"0":["r1"],"1":["r2"]},"other":{"0":["r1"]}}`

	got := Desanitize(decode(t, in), "playerRouteAssociations")

	assert.JSONEq(t, `{"playerRouteAssociations":{"0":["r1"],"1":["r2"]},"other":[["r1"]]}`, encode(t, got))
}

func TestDesanitizeToleratesIndexGaps(t *testing.T) {
	v := decode(t, `{"points":{"0":[1,2],"2":[5,6],"7":[9,9]}}`)

	assert.JSONEq(t, `{"points":[[1,2],[5,6],[9,9]]}`, encode(t, Desanitize(v)))
}

func TestDesanitizeSortsByNumericKey(t *testing.T) {
	v := decode(t, `{"10":[10],"2":[2],"0":[0],"1":[1],"3":[3],"4":[4],"5":[5],"6":[6],"7":[7],"8":[8],"9":[9]}`)

	assert.JSONEq(t, `[[0],[1],[2],[3],[4],[5],[6],[7],[8],[9],[10]]`, encode(t, Desanitize(v)))
}
