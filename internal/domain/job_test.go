package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobRecordJSON_ResolvedEmployerWritesID(t *testing.T) {
	j := NewJobRecord()
	j.Title = "Data Analyst"
	j.URL = "https://builtin.com/job/data-analyst/1"
	j.Employer = UnresolvedEmployer("Acme").WithID(7)
	j.ObservedAt = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	b, err := json.Marshal(j)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, float64(7), raw["company_id"])
	assert.NotContains(t, raw, "company_name")
	assert.Equal(t, "Remote", raw["location"])
	assert.Equal(t, "https://builtin.com/job/data-analyst/1", raw["job_url"])
}

func TestJobRecordJSON_UnresolvedEmployerWritesName(t *testing.T) {
	j := NewJobRecord()
	j.Employer = UnresolvedEmployer("Acme")

	b, err := json.Marshal(j)
	require.NoError(t, err)

	var back JobRecord
	require.NoError(t, json.Unmarshal(b, &back))
	assert.False(t, back.Employer.Resolved())
	assert.Equal(t, "Acme", back.Employer.Name)
	assert.Equal(t, DefaultSalary, back.Salary)
}

func TestEmployerRefString(t *testing.T) {
	assert.Equal(t, "Acme", UnresolvedEmployer("Acme").String())
	assert.Equal(t, "Acme#3", UnresolvedEmployer("Acme").WithID(3).String())
	assert.Equal(t, "#3", EmployerRef{ID: 3}.String())
}
