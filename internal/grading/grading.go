// Package grading derives marks labels, pass/fail results, submission status
// and per-assignment statistics from data already fetched from the LMS API.
package grading

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

const DefaultPassThreshold = 50.0

type Grader struct {
	threshold float64
}

// New returns a Grader passing submissions at or above threshold percent.
func New(threshold float64) Grader {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultPassThreshold
	}
	return Grader{threshold: threshold}
}

func (g Grader) Threshold() float64 {
	return g.threshold
}

func Percentage(marks, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return marks / total * 100
}

// Result is Pending without marks or without a positive total.
func (g Grader) Result(marks *float64, total float64) models.GradeResult {
	if marks == nil || total <= 0 {
		return models.ResultPending
	}
	if Percentage(*marks, total) >= g.threshold {
		return models.ResultPass
	}
	return models.ResultFail
}

// MarksLabel renders "marks/total", with 0 marks until a grade exists.
func MarksLabel(marks *float64, total float64) string {
	var m float64
	if marks != nil {
		m = *marks
	}
	return formatNumber(m) + "/" + formatNumber(total)
}

// Status of an assignment for one student at the given moment.
func Status(now, due time.Time, submitted bool) models.AssignmentStatus {
	switch {
	case submitted:
		return models.StatusSubmitted
	case !due.IsZero() && now.After(due):
		return models.StatusDueDatePassed
	default:
		return models.StatusPending
	}
}

type Chart struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

type Stats struct {
	Submitted     int     `json:"submitted"`
	Graded        int     `json:"graded"`
	TotalStudents int     `json:"total_students"`
	Missing       int     `json:"missing"`
	Average       string  `json:"average"`
	AverageValue  float64 `json:"-"`
	Top           string  `json:"top"`
	Bottom        string  `json:"bottom"`
	Passed        int     `json:"passed"`
	Failed        int     `json:"failed"`
	Chart         Chart   `json:"chart"`
}

// Summarize reduces the submissions of one assignment. Only graded
// submissions contribute to average, top and bottom.
func (g Grader) Summarize(subs []models.Submission, totalMarks float64, totalStudents int) Stats {
	stats := Stats{
		Submitted:     len(subs),
		TotalStudents: totalStudents,
		Top:           "N/A",
		Bottom:        "N/A",
		Chart:         Chart{Labels: []string{}, Data: []float64{}},
	}

	graded := make([]models.Submission, 0, len(subs))
	var sum float64
	for _, s := range subs {
		if !s.Graded() {
			continue
		}
		graded = append(graded, s)
		sum += *s.Marks
		stats.Chart.Labels = append(stats.Chart.Labels, s.StudentName)
		stats.Chart.Data = append(stats.Chart.Data, *s.Marks)

		switch g.Result(s.Marks, totalMarks) {
		case models.ResultPass:
			stats.Passed++
		case models.ResultFail:
			stats.Failed++
		}
	}
	stats.Graded = len(graded)

	if len(graded) > 0 {
		stats.AverageValue = sum / float64(len(graded))

		sort.SliceStable(graded, func(i, j int) bool {
			return *graded[i].Marks > *graded[j].Marks
		})
		stats.Top = graded[0].StudentName
		stats.Bottom = graded[len(graded)-1].StudentName
	}
	stats.Average = fmt.Sprintf("%.2f", stats.AverageValue)

	if missing := totalStudents - stats.Submitted; missing > 0 {
		stats.Missing = missing
	}

	return stats
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
