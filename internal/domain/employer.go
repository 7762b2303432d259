package domain

import "strconv"

// EmployerRef links a record to its employer. It starts as a display name
// and becomes a stable id after the run's resolution step.
type EmployerRef struct {
	Name string
	ID   int64
}

func UnresolvedEmployer(name string) EmployerRef {
	return EmployerRef{Name: name}
}

func (e EmployerRef) Resolved() bool { return e.ID > 0 }

// WithID keeps the display name so logs stay readable after resolution.
func (e EmployerRef) WithID(id int64) EmployerRef {
	return EmployerRef{Name: e.Name, ID: id}
}

func (e EmployerRef) String() string {
	if e.Resolved() {
		if e.Name != "" {
			return e.Name + "#" + strconv.FormatInt(e.ID, 10)
		}
		return "#" + strconv.FormatInt(e.ID, 10)
	}
	return e.Name
}
