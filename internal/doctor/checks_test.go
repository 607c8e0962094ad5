package doctor

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckStatus_String(t *testing.T) {
	tests := []struct {
		status   CheckStatus
		expected string
	}{
		{StatusPass, "pass"},
		{StatusWarn, "warn"},
		{StatusFail, "fail"},
		{CheckStatus(99), "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.status.String())
		})
	}
}

func TestCheckResult_JSON(t *testing.T) {
	data, err := json.Marshal(CheckResult{Name: "config", Status: StatusWarn, Message: "hm"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"config","status":"warn","message":"hm"}`, string(data))

	var back CheckResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, StatusWarn, back.Status)
	assert.Error(t, json.Unmarshal([]byte(`{"status":"meh"}`), &back))
}

// mockCheck is a test implementation of Check.
type mockCheck struct {
	name     string
	category string
	result   CheckResult
	runs     *[]string
}

func (m *mockCheck) Name() string     { return m.name }
func (m *mockCheck) Category() string { return m.category }
func (m *mockCheck) Run() CheckResult {
	if m.runs != nil {
		*m.runs = append(*m.runs, m.name)
	}
	return m.result
}

func TestRunAll(t *testing.T) {
	var runs []string
	checks := []Check{
		&mockCheck{name: "check1", result: CheckResult{Status: StatusPass}, runs: &runs},
		&mockCheck{name: "check2", result: CheckResult{Status: StatusFail}, runs: &runs},
		&mockCheck{name: "check3", result: CheckResult{Status: StatusWarn}, runs: &runs},
	}

	results := RunAll(checks)

	require.Len(t, results, 3)
	assert.Equal(t, []string{"check1", "check2", "check3"}, runs)
	assert.Equal(t, StatusPass, results[0].Status)
	assert.Equal(t, StatusFail, results[1].Status)
	assert.Equal(t, StatusWarn, results[2].Status)
}

func TestCountByStatus(t *testing.T) {
	counts := CountByStatus([]CheckResult{
		{Status: StatusPass},
		{Status: StatusPass},
		{Status: StatusWarn},
		{Status: StatusFail},
	})

	assert.Equal(t, 2, counts[StatusPass])
	assert.Equal(t, 1, counts[StatusWarn])
	assert.Equal(t, 1, counts[StatusFail])
}

func TestHasFailuresAndIssues(t *testing.T) {
	pass := []CheckResult{{Status: StatusPass}}
	warn := []CheckResult{{Status: StatusPass}, {Status: StatusWarn}}
	fail := []CheckResult{{Status: StatusFail}}

	assert.False(t, HasFailures(pass))
	assert.False(t, HasIssues(pass))
	assert.False(t, HasFailures(warn))
	assert.True(t, HasIssues(warn))
	assert.True(t, HasFailures(fail))
	assert.True(t, HasIssues(fail))
}

func TestSummary(t *testing.T) {
	assert.Equal(t, "Everything looks good", Summary(nil))
	assert.Equal(t, "Everything looks good", Summary([]CheckResult{{Status: StatusPass}}))
	assert.Equal(t, "1 issue found", Summary([]CheckResult{{Status: StatusWarn}}))
	assert.Equal(t, "2 issues found", Summary([]CheckResult{{Status: StatusWarn}, {Status: StatusFail}}))
}
