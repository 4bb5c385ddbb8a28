// Package shell is the per-session navigation state: which section of the
// teacher or student shell is currently shown.
package shell

import (
	"context"
	"errors"
	"fmt"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

type Section string

const (
	Dashboard        Section = "dashboard"
	ViewAssignments  Section = "view-assignments"
	SubmitAssignment Section = "submit-assignment"
	Notes            Section = "notes"
	Marking          Section = "marking"
	Profile          Section = "profile"
)

// Initial is the section a fresh session lands on.
const Initial = Dashboard

var (
	ErrUnknownSection    = errors.New("unknown section")
	ErrSectionNotAllowed = errors.New("section not available for role")
)

var sectionsByRole = map[models.Role][]Section{
	models.RoleTeacher: {Dashboard, ViewAssignments, Notes, Marking, Profile},
	models.RoleStudent: {Dashboard, ViewAssignments, SubmitAssignment, Notes, Marking, Profile},
}

// Sections lists the sidebar entries of a role's shell in display order.
func Sections(role models.Role) []Section {
	out := make([]Section, len(sectionsByRole[role]))
	copy(out, sectionsByRole[role])
	return out
}

func Allowed(role models.Role, s Section) bool {
	for _, candidate := range sectionsByRole[role] {
		if candidate == s {
			return true
		}
	}
	return false
}

func Parse(raw string) (Section, error) {
	switch s := Section(raw); s {
	case Dashboard, ViewAssignments, SubmitAssignment, Notes, Marking, Profile:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSection, raw)
	}
}

// State is what the shell renders: the sidebar and the selected section.
type State struct {
	Role     models.Role `json:"role"`
	Selected Section     `json:"selected"`
	Sections []Section   `json:"sections"`
}

type Navigator struct {
	holder *session.Holder
}

func NewNavigator(holder *session.Holder) *Navigator {
	return &Navigator{holder: holder}
}

// Current falls back to Initial when nothing valid is stored.
func (n *Navigator) Current(ctx context.Context, sid string, role models.Role) (State, error) {
	raw, err := n.holder.Section(ctx, sid)
	if err != nil {
		return State{}, err
	}

	selected := Initial
	if s, err := Parse(raw); err == nil && Allowed(role, s) {
		selected = s
	}

	return State{Role: role, Selected: selected, Sections: Sections(role)}, nil
}

func (n *Navigator) Navigate(ctx context.Context, sid string, role models.Role, target string) (State, error) {
	s, err := Parse(target)
	if err != nil {
		return State{}, err
	}
	if !Allowed(role, s) {
		return State{}, fmt.Errorf("%w: %s", ErrSectionNotAllowed, s)
	}

	if err := n.holder.SetSection(ctx, sid, string(s)); err != nil {
		return State{}, err
	}

	return State{Role: role, Selected: s, Sections: Sections(role)}, nil
}
