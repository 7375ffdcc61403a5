package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openquery/dispatcher"
	"github.com/openquery/dispatcher/job"
	"github.com/openquery/dispatcher/store"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := store.OpenSQLite("file::memory:?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, store.InitDB(ctx, db))
	return store.New(db)
}

func testSpec(userID uuid.UUID) job.Spec {
	return job.Spec{
		UserID:        userID,
		DBCredentials: job.Credentials{Dialect: "sqlite", TNS: "file::memory:"},
		QueryText:     "select 1",
		ExportType:    job.ExportCSV,
	}
}

func TestEnqueueAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)

	jb, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, jb)
	assert.Equal(t, job.Pending, jb.Status)
	assert.Equal(t, userID, jb.UserID)
}

func TestGetMissingReturnsNilNil(t *testing.T) {
	s := newTestStore(t)
	jb, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, jb)
}

func TestClaimNextRespectsGlobalCap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)

	jb, err := s.ClaimNext(ctx, "gen-1", 1, 10)
	require.NoError(t, err)
	require.NotNil(t, jb)
	assert.Equal(t, job.Queued, jb.Status)

	jb2, err := s.ClaimNext(ctx, "gen-1", 1, 10)
	require.NoError(t, err)
	assert.Nil(t, jb2, "global cap of 1 already saturated by the first claim")
}

func TestClaimNextRespectsUserCap(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, testSpec(other))
	require.NoError(t, err)

	jb, err := s.ClaimNext(ctx, "gen-1", 10, 1)
	require.NoError(t, err)
	require.NotNil(t, jb)
	require.Equal(t, userID, jb.UserID)

	// userID is now at their cap of 1; the next claim must skip their
	// remaining job and admit other's instead.
	jb2, err := s.ClaimNext(ctx, "gen-1", 10, 1)
	require.NoError(t, err)
	require.NotNil(t, jb2)
	assert.Equal(t, other, jb2.UserID)

	jb3, err := s.ClaimNext(ctx, "gen-1", 10, 1)
	require.NoError(t, err)
	assert.Nil(t, jb3)
}

func TestClaimNextNoneEligible(t *testing.T) {
	s := newTestStore(t)
	jb, err := s.ClaimNext(context.Background(), "gen-1", 10, 10)
	require.NoError(t, err)
	assert.Nil(t, jb)
}

func TestFullLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)

	jb, err := s.ClaimNext(ctx, "gen-1", 10, 10)
	require.NoError(t, err)
	require.NotNil(t, jb)
	assert.Equal(t, id, jb.ID)

	require.NoError(t, s.Start(ctx, jb, "gen-1"))
	assert.Equal(t, job.Running, jb.Status)
	assert.NotNil(t, jb.StartedAt)

	meta := job.ResultMetadata{"row_count": int64(3)}
	require.NoError(t, s.Transition(ctx, jb, job.Completed, dispatcher.TransitionFields{ResultMetadata: meta}))
	assert.Equal(t, job.Completed, jb.Status)
	assert.NotNil(t, jb.CompletedAt)

	stored, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, job.Completed, stored.Status)
	assert.EqualValues(t, 3, stored.ResultMetadata["row_count"])
}

func TestStartWrongGenerationLosesLock(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	jb, err := s.ClaimNext(ctx, "gen-1", 10, 10)
	require.NoError(t, err)
	require.NotNil(t, jb)

	err = s.Start(ctx, jb, "gen-2")
	assert.ErrorIs(t, err, dispatcher.ErrLockLost)
}

func TestTransitionRejectsIllegalTarget(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	jb, err := s.Get(ctx, id)
	require.NoError(t, err)

	err = s.Transition(ctx, jb, job.Running, dispatcher.TransitionFields{})
	assert.ErrorIs(t, err, dispatcher.ErrTransitionFailed)
}

func TestMarkRerunRequiresTerminalState(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)

	err = s.MarkRerun(ctx, id)
	assert.ErrorIs(t, err, dispatcher.ErrValidation)
}

func TestMarkRerunFromFailed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	jb, err := s.ClaimNext(ctx, "gen-1", 10, 10)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx, jb, "gen-1"))
	require.NoError(t, s.Transition(ctx, jb, job.Failed, dispatcher.TransitionFields{ErrorMessage: "boom"}))

	require.NoError(t, s.MarkRerun(ctx, id))

	stored, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, job.Pending, stored.Status)
	assert.Nil(t, stored.CompletedAt)
	assert.Empty(t, stored.ErrorMessage)
}

func TestReclaimStaleByGeneration(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	jb, err := s.ClaimNext(ctx, "old-gen", 10, 10)
	require.NoError(t, err)
	require.NotNil(t, jb)

	ids, err := s.ReclaimStale(ctx, "new-gen", time.Hour)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, jb.ID, ids[0])

	stored, err := s.Get(ctx, jb.ID)
	require.NoError(t, err)
	assert.Equal(t, job.Pending, stored.Status)
}

func TestReclaimStaleLeavesLiveGenerationAlone(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	jb, err := s.ClaimNext(ctx, "live-gen", 10, 10)
	require.NoError(t, err)
	require.NotNil(t, jb)

	ids, err := s.ReclaimStale(ctx, "live-gen", time.Hour)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCurrentCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)

	_, err = s.ClaimNext(ctx, "gen-1", 10, 10)
	require.NoError(t, err)

	counts, err := s.CurrentCounts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts.Pending)
	assert.EqualValues(t, 1, counts.Queued)
}

func TestGetSettingsMissingReturnsNilNil(t *testing.T) {
	s := newTestStore(t)
	settings, err := s.GetSettings(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, settings)
}

func TestPutAndGetSettings(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	want := job.UserSettings{
		UserID:      userID,
		SSHUsername: "deploy",
		SSHPort:     2222,
		ExportType:  job.ExportJSON,
	}
	require.NoError(t, s.PutSettings(ctx, want))

	got, err := s.GetSettings(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.SSHUsername, got.SSHUsername)
	assert.Equal(t, want.SSHPort, got.SSHPort)
	assert.Equal(t, want.ExportType, got.ExportType)
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	_, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, testSpec(other))
	require.NoError(t, err)

	jobs, err := s.List(ctx, userID, job.Pending, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, userID, jobs[0].UserID)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	userID := uuid.New()

	id, err := s.Enqueue(ctx, testSpec(userID))
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))

	jb, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, jb)
}
