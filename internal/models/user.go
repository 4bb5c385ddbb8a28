package models

type User struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Avatar string `json:"avatar,omitempty"`
	Role   Role   `json:"role,omitempty"`
	Course string `json:"course,omitempty"`
	Batch  string `json:"batch,omitempty"`
}

// Counts are the dashboard summary figures for one course/batch.
type Counts struct {
	Students    int `json:"students"`
	Assignments int `json:"assignments"`
	Lectures    int `json:"lectures"`
}
