package models

type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

func (r Role) String() string {
	return string(r)
}

func IsValidRole(role string) bool {
	switch Role(role) {
	case RoleTeacher, RoleStudent:
		return true
	default:
		return false
	}
}

// Session is the logged-in user's identity and authorization context.
// It is stored as JSON under the "user" storage key.
type Session struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar,omitempty"`
	Token  string `json:"token"`
	Course string `json:"course,omitempty"`
	Batch  string `json:"batch,omitempty"`
}

// Selection is the course/batch pair a view is scoped to.
type Selection struct {
	Course string `json:"course"`
	Batch  string `json:"batch"`
}

// Complete reports whether both course and batch are chosen.
func (s Selection) Complete() bool {
	return s.Course != "" && s.Batch != ""
}
