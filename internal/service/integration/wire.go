package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RubachokBoss/assignment-portal/internal/models"
)

// lmsID decodes an identifier the LMS API sends either as a string or as
// a number.
type lmsID string

func (id *lmsID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = lmsID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = lmsID(n.String())
	return nil
}

// Форматы дат от LMS: полный RFC3339 и значения <input type="date"> / datetime-local
var lmsTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// lmsTime decodes RFC3339 timestamps as well as date-only values.
type lmsTime time.Time

func (t *lmsTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = lmsTime{}
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time must be a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*t = lmsTime{}
		return nil
	}

	for _, layout := range lmsTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = lmsTime(parsed)
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

// Wire types decode LMS payloads into the models. The models themselves
// stay free of custom unmarshalers: view rows embed them.
type (
	wireAssignment models.Assignment
	wireNote       models.Note
	wireSubmission models.Submission
	wireUser       models.User
)

func (w *wireAssignment) UnmarshalJSON(data []byte) error {
	type plain models.Assignment
	aux := struct {
		*plain
		ID      lmsID   `json:"_id"`
		DueDate lmsTime `json:"dueDate"`
	}{plain: (*plain)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.ID = string(aux.ID)
	w.DueDate = time.Time(aux.DueDate)
	return nil
}

func (w *wireNote) UnmarshalJSON(data []byte) error {
	type plain models.Note
	aux := struct {
		*plain
		ID   lmsID   `json:"_id"`
		Date lmsTime `json:"date"`
	}{plain: (*plain)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.ID = string(aux.ID)
	w.Date = time.Time(aux.Date)
	return nil
}

func (w *wireSubmission) UnmarshalJSON(data []byte) error {
	type plain models.Submission
	aux := struct {
		*plain
		ID           lmsID   `json:"_id"`
		AssignmentID lmsID   `json:"assignmentId"`
		StudentID    lmsID   `json:"studentId"`
		SubmittedAt  lmsTime `json:"submittedAt"`
	}{plain: (*plain)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.ID = string(aux.ID)
	w.AssignmentID = string(aux.AssignmentID)
	w.StudentID = string(aux.StudentID)
	w.SubmittedAt = time.Time(aux.SubmittedAt)
	return nil
}

func (w *wireUser) UnmarshalJSON(data []byte) error {
	type plain models.User
	aux := struct {
		*plain
		ID lmsID `json:"_id"`
	}{plain: (*plain)(w)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	w.ID = string(aux.ID)
	return nil
}

// fromWire converts decoded items; the result is never nil.
func fromWire[W, T any](items []W, conv func(W) T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		out = append(out, conv(item))
	}
	return out
}
