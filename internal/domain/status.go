package domain

type RunStatus string

const (
	StatusNoJobsFound RunStatus = "no_jobs_found"
	StatusNoNewData   RunStatus = "no_new_data"
	StatusSuccess     RunStatus = "success"
)
