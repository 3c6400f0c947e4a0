package checkin

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/GoEventHub/GoEventHub/internal/apperror"
	"github.com/GoEventHub/GoEventHub/internal/db/dbtest"
	"github.com/GoEventHub/GoEventHub/internal/db/models"
)

type fixture struct {
	db      *gorm.DB
	svc     *Service
	admin   *models.User
	creator *models.User
	jane    *models.User
	event   *models.Event
	reg     *models.Registration
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := dbtest.New(t)
	f := &fixture{
		db:      db,
		svc:     NewService(db, nil, 0),
		admin:   dbtest.CreateUser(t, db, "admin@example.com", models.RoleAdmin),
		creator: dbtest.CreateUser(t, db, "creator@example.com", models.RoleAttendee),
		jane:    dbtest.CreateUser(t, db, "jane@example.com", models.RoleAttendee),
	}

	f.event = &models.Event{
		Title:     "Go Meetup",
		Slug:      "go-meetup",
		StartsAt:  time.Now().Add(time.Hour),
		EndsAt:    time.Now().Add(3 * time.Hour),
		Published: true,
		CreatorID: f.creator.ID,
	}
	require.NoError(t, db.Omit("Creator").Create(f.event).Error)

	f.reg = f.register(t, f.jane, "K7QX-M2PA")

	return f
}

func (f *fixture) register(t *testing.T, user *models.User, code string) *models.Registration {
	t.Helper()

	reg := &models.Registration{UserID: user.ID, EventID: f.event.ID, Code: code, Status: models.StatusRegistered}
	require.NoError(t, f.db.Omit("User", "Event", "CheckedInBy").Create(reg).Error)

	return reg
}

func (f *fixture) checkedInCount(t *testing.T) int64 {
	t.Helper()

	stats, err := f.svc.Stats(context.Background(), f.event.ID)
	require.NoError(t, err)

	return stats.CheckedIn
}

func TestCheckInByCode(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	res, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, " k7qx m2pa ")
	require.NoError(t, err)
	assert.Equal(t, MethodCode, res.Method)
	require.NotNil(t, res.Registration)
	assert.Equal(t, f.reg.ID, res.Registration.ID)
	assert.Equal(t, models.StatusCheckedIn, res.Registration.Status)
	require.NotNil(t, res.Registration.CheckedInByID)
	assert.Equal(t, f.admin.ID, *res.Registration.CheckedInByID)
	assert.Equal(t, "jane@example.com", res.Registration.User.Email)

	var stored models.Registration
	require.NoError(t, f.db.First(&stored, f.reg.ID).Error)
	require.NotNil(t, stored.CheckedInAt)
	assert.Equal(t, models.StatusCheckedIn, stored.Status)
}

func TestCheckInByQRPayload(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.CheckIn(context.Background(), f.creator, f.event.ID,
		"https://events.example.com/check-in?code=K7QX-M2PA")
	require.NoError(t, err)
	assert.Equal(t, MethodQR, res.Method)
	assert.Equal(t, f.reg.ID, res.Registration.ID)

	_, err = f.svc.CheckIn(context.Background(), f.creator, f.event.ID,
		"https://events.example.com/check-in?code=ZZZZ-ZZZZ")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestDoubleCheckIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "K7QX-M2PA")
	require.NoError(t, err)
	firstAt := *first.Registration.CheckedInAt

	second, err := f.svc.CheckIn(ctx, f.creator, f.event.ID, "K7QX-M2PA")
	assert.ErrorIs(t, err, apperror.ErrAlreadyCheckedIn)
	require.NotNil(t, second.Registration)
	require.NotNil(t, second.Registration.CheckedInBy)
	assert.Equal(t, f.admin.ID, second.Registration.CheckedInBy.ID, "first actor is kept")
	assert.WithinDuration(t, firstAt, *second.Registration.CheckedInAt, time.Second)

	assert.EqualValues(t, 1, f.checkedInCount(t))
}

func TestConcurrentCheckIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	const scanners = 8

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, dupe int
	)

	for range scanners {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "K7QX-M2PA")

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				ok++
			} else if assert.ErrorIs(t, err, apperror.ErrAlreadyCheckedIn) {
				dupe++
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, scanners-1, dupe)
	assert.EqualValues(t, 1, f.checkedInCount(t))
}

func TestCheckInSearch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	john := dbtest.CreateUser(t, f.db, "john@example.com", models.RoleAttendee)
	require.NoError(t, f.db.Model(john).Update("name", "John Smith").Error)
	f.register(t, john, "ABCD-EFGH")

	joanna := dbtest.CreateUser(t, f.db, "joanna@example.com", models.RoleAttendee)
	f.register(t, joanna, "HJKM-NPQR")

	t.Run("single match", func(t *testing.T) {
		res, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "smith")
		require.NoError(t, err)
		assert.Equal(t, MethodSearch, res.Method)
		assert.Equal(t, john.ID, res.Registration.UserID)
	})

	t.Run("ambiguous", func(t *testing.T) {
		res, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "j")
		assert.ErrorIs(t, err, apperror.ErrAmbiguousLookup)
		assert.Nil(t, res.Registration)
		assert.GreaterOrEqual(t, len(res.Candidates), 2)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "nobody")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("empty lookup", func(t *testing.T) {
		_, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "  ")
		assert.ErrorIs(t, err, apperror.ErrValidationFailed)
	})
}

func TestCheckInSearchIsLiteral(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, lookup := range []string{"%", "_", "%e%", "j_ne"} {
		_, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, lookup)
		assert.ErrorIs(t, err, apperror.ErrNotFound, lookup)
	}

	assert.EqualValues(t, 0, f.checkedInCount(t), "wildcards must not check anybody in")

	res, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "JANE@Example")
	require.NoError(t, err)
	assert.Equal(t, MethodSearch, res.Method)
	assert.Equal(t, f.reg.ID, res.Registration.ID)
}

func TestCheckInAuthorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CheckIn(ctx, nil, f.event.ID, "K7QX-M2PA")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)

	_, err = f.svc.CheckIn(ctx, f.jane, f.event.ID, "K7QX-M2PA")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = f.svc.CheckIn(ctx, f.admin, 9999, "K7QX-M2PA")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.EqualValues(t, 0, f.checkedInCount(t), "rejected attempts change nothing")
}

func TestSelfCheckIn(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	bob := dbtest.CreateUser(t, f.db, "bob@example.com", models.RoleAttendee)

	t.Run("window closed", func(t *testing.T) {
		f.svc.now = func() time.Time { return f.event.StartsAt.Add(-3 * time.Hour) }
		t.Cleanup(func() { f.svc.now = time.Now })

		_, err := f.svc.SelfCheckIn(ctx, f.jane, "K7QX-M2PA")
		assert.ErrorIs(t, err, apperror.ErrCheckInClosed)
	})

	t.Run("someone else's code", func(t *testing.T) {
		_, err := f.svc.SelfCheckIn(ctx, bob, "K7QX-M2PA")
		assert.ErrorIs(t, err, apperror.ErrForbidden)
	})

	t.Run("unknown code", func(t *testing.T) {
		_, err := f.svc.SelfCheckIn(ctx, f.jane, "ZZZZ-ZZZZ")
		assert.ErrorIs(t, err, apperror.ErrNotFound)
	})

	t.Run("own code", func(t *testing.T) {
		res, err := f.svc.SelfCheckIn(ctx, f.jane, "k7qxm2pa")
		require.NoError(t, err)
		assert.Equal(t, MethodSelf, res.Method)
		assert.Equal(t, f.jane.ID, *res.Registration.CheckedInByID)

		_, err = f.svc.SelfCheckIn(ctx, f.jane, "K7QX-M2PA")
		assert.ErrorIs(t, err, apperror.ErrAlreadyCheckedIn)
	})

	_, err := f.svc.SelfCheckIn(ctx, nil, "K7QX-M2PA")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.register(t, f.admin, "ABCD-EFGH")

	_, err := f.svc.CheckIn(ctx, f.admin, f.event.ID, "K7QX-M2PA")
	require.NoError(t, err)

	stats, err := f.svc.Stats(ctx, f.event.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.Registered)
	assert.EqualValues(t, 1, stats.CheckedIn)
	assert.EqualValues(t, 1, stats.Pending())
	assert.Nil(t, stats.MaxCapacity)

	_, err = f.svc.Stats(ctx, 9999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
