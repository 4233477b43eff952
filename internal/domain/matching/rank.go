package matching

import (
	"bytes"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type SortBy string

const (
	SortByScore    SortBy = "score"
	SortByActivity SortBy = "activity"
	SortBySalary   SortBy = "salary"
)

// ParseSortBy falls back to score ordering for unknown keys.
func ParseSortBy(s string) SortBy {
	switch SortBy(strings.ToLower(strings.TrimSpace(s))) {
	case SortByActivity, "date", "posted":
		return SortByActivity
	case SortBySalary:
		return SortBySalary
	default:
		return SortByScore
	}
}

type Scored struct {
	EntityID   uuid.UUID
	Name       string
	ActivityAt time.Time
	Salary     int
	Result     Result
}

type Page struct {
	Items       []Scored
	TotalItems  int
	TotalPages  int
	CurrentPage int
	PageSize    int
}

// Rank orders items in place by the sort key, then by most recent activity,
// then by ascending id so equal scores always come back in the same order.
func Rank(items []Scored, sortBy SortBy, descending bool) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := compareKey(a, b, sortBy); c != 0 {
			if descending {
				return c > 0
			}
			return c < 0
		}
		if !a.ActivityAt.Equal(b.ActivityAt) {
			return a.ActivityAt.After(b.ActivityAt)
		}
		return bytes.Compare(a.EntityID[:], b.EntityID[:]) < 0
	})
}

func compareKey(a, b Scored, sortBy SortBy) int {
	switch sortBy {
	case SortByActivity:
		switch {
		case a.ActivityAt.Before(b.ActivityAt):
			return -1
		case a.ActivityAt.After(b.ActivityAt):
			return 1
		}
		return compareFloat(a.Result.TotalScore, b.Result.TotalScore)
	case SortBySalary:
		if a.Salary != b.Salary {
			if a.Salary < b.Salary {
				return -1
			}
			return 1
		}
		return compareFloat(a.Result.TotalScore, b.Result.TotalScore)
	default:
		return compareFloat(a.Result.TotalScore, b.Result.TotalScore)
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Paginate slices a ranked list. page and size are 1-based and must already
// be validated.
func Paginate(items []Scored, page, size int) Page {
	total := len(items)
	out := Page{
		Items:       []Scored{},
		TotalItems:  total,
		CurrentPage: page,
		PageSize:    size,
	}
	if size <= 0 || page <= 0 {
		return out
	}
	out.TotalPages = (total + size - 1) / size

	start := (page - 1) * size
	if start >= total {
		return out
	}
	end := start + size
	if end > total {
		end = total
	}
	out.Items = append(out.Items, items[start:end]...)
	return out
}

// JobSalary is the salary value used for salary ordering.
func JobSalary(j Job) int {
	if j.SalaryMax != nil {
		return *j.SalaryMax
	}
	if j.SalaryMin != nil {
		return *j.SalaryMin
	}
	return 0
}
