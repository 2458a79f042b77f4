package health

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckListMarshalJSON(t *testing.T) {
	list := CheckList{
		{Name: "b_second", Result: Result{Status: StatusPass, Message: "ok", Details: map[string]any{}}},
		{Name: "a_first", Result: Result{Status: StatusFail, Message: "bad", Details: map[string]any{}}},
	}

	raw, err := list.MarshalJSON()
	require.NoError(t, err)

	// Insertion order wins over lexical order.
	assert.JSONEq(t,
		`{"b_second":{"status":"pass","message":"ok","details":{},"duration":0},
		  "a_first":{"status":"fail","message":"bad","details":{},"duration":0}}`,
		string(raw))
	assert.Less(t,
		strings.Index(string(raw), "b_second"),
		strings.Index(string(raw), "a_first"))
}

func TestReportCheckLookup(t *testing.T) {
	report := &Report{Checks: CheckList{
		{Name: "present", Result: Result{Status: StatusPass}},
	}}

	result, ok := report.Check("present")
	assert.True(t, ok)
	assert.Equal(t, StatusPass, result.Status)

	_, ok = report.Check("absent")
	assert.False(t, ok)
}
