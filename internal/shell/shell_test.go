package shell

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RubachokBoss/assignment-portal/internal/models"
	"github.com/RubachokBoss/assignment-portal/internal/repository"
	"github.com/RubachokBoss/assignment-portal/internal/session"
)

func newNavigator() *Navigator {
	return NewNavigator(session.NewHolder(repository.NewMemoryStorage(), zerolog.Nop()))
}

func TestNavigatorStartsOnDashboard(t *testing.T) {
	n := newNavigator()

	st, err := n.Current(context.Background(), "sid", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, Dashboard, st.Selected)
	assert.Equal(t, []Section{Dashboard, ViewAssignments, Notes, Marking, Profile}, st.Sections)
}

func TestNavigatorNavigate(t *testing.T) {
	ctx := context.Background()
	n := newNavigator()

	st, err := n.Navigate(ctx, "sid", models.RoleStudent, "submit-assignment")
	require.NoError(t, err)
	assert.Equal(t, SubmitAssignment, st.Selected)

	st, err = n.Current(ctx, "sid", models.RoleStudent)
	require.NoError(t, err)
	assert.Equal(t, SubmitAssignment, st.Selected)
}

func TestNavigatorRejects(t *testing.T) {
	ctx := context.Background()
	n := newNavigator()

	_, err := n.Navigate(ctx, "sid", models.RoleTeacher, "chat")
	assert.ErrorIs(t, err, ErrUnknownSection)

	_, err = n.Navigate(ctx, "sid", models.RoleTeacher, "submit-assignment")
	assert.ErrorIs(t, err, ErrSectionNotAllowed)

	st, err := n.Current(ctx, "sid", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, Dashboard, st.Selected)
}

func TestCurrentIgnoresSectionOfOtherRole(t *testing.T) {
	ctx := context.Background()
	n := newNavigator()

	_, err := n.Navigate(ctx, "sid", models.RoleStudent, "submit-assignment")
	require.NoError(t, err)

	st, err := n.Current(ctx, "sid", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, Dashboard, st.Selected)
}

func TestSectionsReturnsCopy(t *testing.T) {
	s := Sections(models.RoleStudent)
	s[0] = Profile
	assert.Equal(t, Dashboard, Sections(models.RoleStudent)[0])
}
