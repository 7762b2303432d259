package builtin

import (
	"strings"

	"github.com/chris-coyne/job-scraping-pipeline/internal/domain"
)

type Category int

const (
	CategoryNone Category = iota
	CategorySalary
	CategoryLocation
	CategoryLevel
)

func (c Category) String() string {
	switch c {
	case CategorySalary:
		return "salary"
	case CategoryLocation:
		return "location"
	case CategoryLevel:
		return "level"
	default:
		return "none"
	}
}

type detailRule struct {
	Category Category
	Any      []string
}

// detailRules are checked in order; the first rule with a matching needle
// claims the fragment. Matching is case-sensitive.
var detailRules = []detailRule{
	{Category: CategorySalary, Any: []string{"$", "K", "Annually", "Per Year"}},
	{Category: CategoryLocation, Any: []string{"USA", ","}},
	{Category: CategoryLevel, Any: []string{"level", "Junior", "Senior"}},
}

// ClassifyFragment returns the category claiming text, or CategoryNone.
func ClassifyFragment(text string) Category {
	for _, r := range detailRules {
		for _, needle := range r.Any {
			if strings.Contains(text, needle) {
				return r.Category
			}
		}
	}
	return CategoryNone
}

type Details struct {
	Salary   string
	Location string
	Level    string
}

// Classify assigns each fragment to at most one field. Fields no fragment
// claims keep their defaults; a later fragment of the same category wins.
func Classify(fragments []string) Details {
	d := Details{
		Salary:   domain.DefaultSalary,
		Location: domain.DefaultLocation,
		Level:    domain.DefaultLevel,
	}
	for _, f := range fragments {
		switch ClassifyFragment(f) {
		case CategorySalary:
			d.Salary = f
		case CategoryLocation:
			d.Location = f
		case CategoryLevel:
			d.Level = f
		}
	}
	return d
}
