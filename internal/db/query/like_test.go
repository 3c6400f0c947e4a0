package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
	"github.com/GoEventHub/GoEventHub/internal/db/query"
)

func TestContains(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "ada", want: "%ada%"},
		{in: "%", want: "%!%%"},
		{in: "a_b", want: "%a!_b%"},
		{in: "wow!", want: "%wow!!%"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, query.Contains(tt.in))
		})
	}
}

func TestLikeCondition(t *testing.T) {
	cond, args := query.LikeCondition("Ada", "name", "email")

	assert.Equal(t, "(LOWER(name) LIKE ? ESCAPE '!' OR LOWER(email) LIKE ? ESCAPE '!')", cond)
	assert.Equal(t, []any{"%ada%", "%ada%"}, args)
}

func TestLikeMatchesLiterally(t *testing.T) {
	db := dbtest.New(t)
	dbtest.CreateUser(t, db, "Ada.Lovelace@example.com", models.RoleAttendee)
	dbtest.CreateUser(t, db, "grace_hopper@example.com", models.RoleAttendee)
	dbtest.CreateUser(t, db, "100%fun@example.com", models.RoleAttendee)

	find := func(search string) []string {
		var emails []string
		require.NoError(t, query.Like(db.Model(&models.User{}), search, "name", "email").
			Order("id ASC").Pluck("email", &emails).Error)

		return emails
	}

	assert.Equal(t, []string{"Ada.Lovelace@example.com"}, find("ada.LOVE"))
	assert.Equal(t, []string{"grace_hopper@example.com"}, find("_"))
	assert.Equal(t, []string{"100%fun@example.com"}, find("%"))
	assert.Empty(t, find("%x%"))
}
