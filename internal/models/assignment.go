package models

import "time"

type Assignment struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	DueDate     time.Time `json:"dueDate"`
	Description string    `json:"description"`
	Link        string    `json:"link,omitempty"`
	File        string    `json:"file,omitempty"`
	TotalMarks  float64   `json:"totalMarks"`
	Course      string    `json:"course"`
	Batch       string    `json:"batch"`
	Locked      bool      `json:"locked"`
}

type Note struct {
	ID      string    `json:"_id"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Content string    `json:"content"`
	Link    string    `json:"link,omitempty"`
	File    string    `json:"file,omitempty"`
	Course  string    `json:"course"`
	Batch   string    `json:"batch"`
}
