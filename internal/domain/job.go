package domain

import (
	"encoding/json"
	"time"
)

const (
	DefaultLocation    = "Remote"
	DefaultSalary      = "Not Provided"
	DefaultLevel       = "Unknown"
	DefaultDescription = "No description provided"
)

// JobRecord is one posting observation from a single run.
// URL is the identity key used for deduplication.
type JobRecord struct {
	SearchedQuery string
	Title         string
	Employer      EmployerRef
	Location      string
	Salary        string
	Level         string
	URL           string
	Description   string
	ObservedAt    time.Time
	Source        string
}

// NewJobRecord returns a record with every optional field at its default.
func NewJobRecord() JobRecord {
	return JobRecord{
		Location:    DefaultLocation,
		Salary:      DefaultSalary,
		Level:       DefaultLevel,
		Description: DefaultDescription,
	}
}

type jobRecordJSON struct {
	SearchedQuery string    `json:"searched_job_title"`
	Title         string    `json:"job_title"`
	CompanyName   string    `json:"company_name,omitempty"`
	CompanyID     int64     `json:"company_id,omitempty"`
	Location      string    `json:"location"`
	Salary        string    `json:"salary"`
	Level         string    `json:"level"`
	URL           string    `json:"job_url"`
	Description   string    `json:"job_description"`
	ObservedAt    time.Time `json:"date_added"`
	Source        string    `json:"source"`
}

// MarshalJSON writes company_id for a resolved employer and company_name otherwise.
func (j JobRecord) MarshalJSON() ([]byte, error) {
	w := jobRecordJSON{
		SearchedQuery: j.SearchedQuery,
		Title:         j.Title,
		Location:      j.Location,
		Salary:        j.Salary,
		Level:         j.Level,
		URL:           j.URL,
		Description:   j.Description,
		ObservedAt:    j.ObservedAt,
		Source:        j.Source,
	}
	if j.Employer.Resolved() {
		w.CompanyID = j.Employer.ID
	} else {
		w.CompanyName = j.Employer.Name
	}
	return json.Marshal(w)
}

func (j *JobRecord) UnmarshalJSON(b []byte) error {
	var w jobRecordJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*j = JobRecord{
		SearchedQuery: w.SearchedQuery,
		Title:         w.Title,
		Employer:      EmployerRef{Name: w.CompanyName, ID: w.CompanyID},
		Location:      w.Location,
		Salary:        w.Salary,
		Level:         w.Level,
		URL:           w.URL,
		Description:   w.Description,
		ObservedAt:    w.ObservedAt,
		Source:        w.Source,
	}
	return nil
}
