package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

func newEvent(t *testing.T, db *gorm.DB, creator *models.User, title string, published bool, startsIn time.Duration) *models.Event {
	t.Helper()

	e := &models.Event{
		Title:     title,
		StartsAt:  time.Now().Add(startsIn),
		EndsAt:    time.Now().Add(startsIn + 2*time.Hour),
		Published: published,
		CreatorID: creator.ID,
	}
	require.NoError(t, Create(db, e))

	return e
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Go Meetup 2026", want: "go-meetup-2026"},
		{in: "  Hello,   World!  ", want: "hello-world"},
		{in: "---", want: ""},
		{in: "Café Night", want: "cafe-night"},
		{in: "Rock & Roll", want: "rock-and-roll"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateSlug(tt.in))
		})
	}
}

func TestCreateAssignsUniqueSlugs(t *testing.T) {
	db := dbtest.New(t)
	admin := dbtest.CreateUser(t, db, "admin@example.com", models.RoleAdmin)

	first := newEvent(t, db, admin, "Go Meetup", true, 24*time.Hour)
	second := newEvent(t, db, admin, "Go Meetup", true, 48*time.Hour)
	third := newEvent(t, db, admin, "!!!", true, 48*time.Hour)

	assert.Equal(t, "go-meetup", first.Slug)
	assert.Equal(t, "go-meetup-2", second.Slug)
	assert.Equal(t, "event", third.Slug)

	// soft deleted events keep their slug reserved
	require.NoError(t, Delete(db, first.ID))

	fourth := newEvent(t, db, admin, "Go Meetup", true, 72*time.Hour)
	assert.Equal(t, "go-meetup-3", fourth.Slug)
}

func TestGetPublishedBySlug(t *testing.T) {
	db := dbtest.New(t)
	admin := dbtest.CreateUser(t, db, "admin@example.com", models.RoleAdmin)

	published := newEvent(t, db, admin, "Public Talk", true, time.Hour)
	draft := newEvent(t, db, admin, "Draft Talk", false, time.Hour)

	got, err := GetPublishedBySlug(db, published.Slug)
	require.NoError(t, err)
	assert.Equal(t, published.ID, got.ID)

	_, err = GetPublishedBySlug(db, draft.Slug)
	require.ErrorIs(t, err, ErrEventNotFound)

	_, err = GetPublishedBySlug(db, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestList(t *testing.T) {
	db := dbtest.New(t)
	admin := dbtest.CreateUser(t, db, "admin@example.com", models.RoleAdmin)

	newEvent(t, db, admin, "Later Workshop", true, 48*time.Hour)
	newEvent(t, db, admin, "Soon Workshop", true, time.Hour)
	newEvent(t, db, admin, "Past Conference", true, -48*time.Hour)
	newEvent(t, db, admin, "Hidden Draft", false, time.Hour)

	page, err := List(db, Filter{PublishedOnly: true, UpcomingOnly: true}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	assert.Equal(t, "Soon Workshop", page.Events[0].Title)
	assert.Equal(t, "Later Workshop", page.Events[1].Title)
	assert.Equal(t, int64(2), page.Total)

	page, err = List(db, Filter{Search: "Conference"}, 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)

	page, err = List(db, Filter{Search: "workSHOP"}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, page.Events, 2)

	for _, search := range []string{"%", "_", "Soon%Workshop"} {
		page, err = List(db, Filter{Search: search}, 1, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Events, search)
	}

	page, err = List(db, Filter{}, 2, 3)
	require.NoError(t, err)
	assert.Len(t, page.Events, 1)
	assert.Equal(t, 2, page.TotalPages)
}

func TestUpdate(t *testing.T) {
	db := dbtest.New(t)
	admin := dbtest.CreateUser(t, db, "admin@example.com", models.RoleAdmin)

	e := newEvent(t, db, admin, "Go Meetup", false, time.Hour)
	require.NoError(t, db.Model(e).UpdateColumn("registered_count", 3).Error)

	e.Title = "Rust Meetup"
	e.Published = true
	require.NoError(t, Update(db, e))

	got, err := GetByID(db, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "rust-meetup", got.Slug)
	assert.True(t, got.Published)
	assert.Equal(t, 3, got.RegisteredCount, "update must not reset the counter")

	capacity := 2
	got.MaxCapacity = &capacity
	require.ErrorIs(t, Update(db, got), ErrCapacityBelowRegistrations)

	require.ErrorIs(t, Update(db, &models.Event{ID: 999, Title: "x"}), ErrEventNotFound)
}

func TestDelete(t *testing.T) {
	db := dbtest.New(t)
	admin := dbtest.CreateUser(t, db, "admin@example.com", models.RoleAdmin)
	attendee := dbtest.CreateUser(t, db, "a@example.com", models.RoleAttendee)

	e := newEvent(t, db, admin, "Go Meetup", true, time.Hour)
	require.NoError(t, db.Create(&models.Registration{UserID: attendee.ID, EventID: e.ID, Code: "ABCD-EFGH"}).Error)

	require.ErrorIs(t, Delete(db, e.ID), ErrEventHasRegistrations)
	require.ErrorIs(t, Delete(db, 999), ErrEventNotFound)

	empty := newEvent(t, db, admin, "Empty", true, time.Hour)
	require.NoError(t, Delete(db, empty.ID))

	_, err := GetByID(db, empty.ID)
	require.ErrorIs(t, err, ErrEventNotFound)
}
