package models

import "time"

type Submission struct {
	ID             string    `json:"_id"`
	AssignmentID   string    `json:"assignmentId"`
	StudentID      string    `json:"studentId"`
	StudentName    string    `json:"name"`
	RollNo         string    `json:"rollNo"`
	Title          string    `json:"title,omitempty"`
	Description    string    `json:"description,omitempty"`
	SubmissionType string    `json:"submissionType,omitempty"`
	File           string    `json:"file,omitempty"`
	Link           string    `json:"link,omitempty"`
	SubmittedAt    time.Time `json:"submittedAt"`
	Marks          *float64  `json:"marks,omitempty"`
	Comments       string    `json:"comments,omitempty"`
}

// Graded reports whether a teacher has recorded marks.
func (s Submission) Graded() bool {
	return s.Marks != nil
}

type SubmissionType string

const (
	SubmissionFile SubmissionType = "file"
	SubmissionLink SubmissionType = "link"
	SubmissionBoth SubmissionType = "both"
)

type AssignmentStatus string

const (
	StatusSubmitted     AssignmentStatus = "submitted"
	StatusPending       AssignmentStatus = "pending"
	StatusDueDatePassed AssignmentStatus = "due-date-passed"
)

type GradeResult string

const (
	ResultPass    GradeResult = "Pass"
	ResultFail    GradeResult = "Fail"
	ResultPending GradeResult = "Pending"
)
