package review

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/application/applicationtest"
	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/notification"
	"SKCKPortal/internal/notification/notificationtest"
	"SKCKPortal/pkg/apperror"
)

type staticUsers int64

func (u staticUsers) CountUsers(context.Context) (int64, error) { return int64(u), nil }

type ReviewSuite struct {
	suite.Suite
	ctx     context.Context
	apps    *applicationtest.MemoryStore
	notes   *notificationtest.MemoryStore
	hub     *notification.Hub
	notify  *notification.Service
	svc     *Service
	clock   time.Time
	admin   auth.Principal
	admin2  auth.Principal
	user    auth.Principal
	pending application.Application
}

func TestReviewSuite(t *testing.T) {
	suite.Run(t, new(ReviewSuite))
}

func (s *ReviewSuite) SetupTest() {
	s.ctx = context.Background()
	s.apps = applicationtest.NewMemoryStore()
	s.notes = notificationtest.NewMemoryStore()
	s.hub = notification.NewHub(s.notes, time.Hour, zap.NewNop())
	s.notify = notification.NewService(s.notes, s.hub, nil, nil, zap.NewNop())
	s.svc = NewService(s.apps, s.notify, staticUsers(3), zap.NewNop())

	s.clock = time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	s.svc.now = func() time.Time {
		s.clock = s.clock.Add(time.Minute)
		return s.clock
	}

	s.admin = auth.Principal{ID: "admin-1", Role: auth.RoleAdmin}
	s.admin2 = auth.Principal{ID: "admin-2", Role: auth.RoleAdmin}
	s.user = auth.Principal{ID: "user-1", Role: auth.RoleUser}
	s.pending = s.putPending("user-1")
}

func (s *ReviewSuite) TearDownTest() {
	s.hub.Close()
}

func (s *ReviewSuite) putPending(owner string) application.Application {
	return s.apps.Put(application.Application{
		UserID:    owner,
		Payload:   applicationtest.ValidPayload(),
		Status:    application.StatusPending,
		CreatedAt: s.clock,
		UpdatedAt: s.clock,
	})
}

func (s *ReviewSuite) stored(id string) *application.Application {
	app, err := s.apps.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return app
}

func (s *ReviewSuite) TestApproveNotifiesOwner() {
	got, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionApproved, "")
	s.Require().NoError(err)

	s.Equal(application.StatusApproved, got.Status)
	s.Require().NotNil(got.ReviewedAt)
	s.Equal("admin-1", got.ReviewedBy)
	s.Empty(got.RejectionReason)

	notes := s.notes.All("user-1")
	s.Require().Len(notes, 1)
	s.Equal("Pengajuan SKCK Disetujui", notes[0].Title)
	s.Equal("Pengajuan SKCK Anda telah disetujui", notes[0].Message)
	s.Equal(notification.TypeReview, notes[0].Type)
	s.Equal(s.pending.ID.Hex(), notes[0].ApplicationID)
	s.False(notes[0].Read)

	stored := s.stored(s.pending.ID.Hex())
	s.Require().NotNil(stored.Outbox)
	s.True(stored.Outbox.Dispatched)
	s.Equal(notes[0].ID, stored.Outbox.NotificationID)
}

// A rejection needs a reason; nothing is written without one.
func (s *ReviewSuite) TestRejectWithoutReasonWritesNothing() {
	for _, reason := range []string{"", "   ", "\t\n"} {
		_, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionRejected, reason)
		s.ErrorIs(err, apperror.ErrMissingReason)
		s.ErrorIs(err, apperror.ErrValidation)
	}
	s.Equal(0, s.apps.CallCount("Review"))
	s.Equal(application.StatusPending, s.stored(s.pending.ID.Hex()).Status)
	s.Empty(s.notes.All("user-1"))
}

func (s *ReviewSuite) TestRejectWithReason() {
	got, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionRejected, "  Dokumen tidak lengkap ")
	s.Require().NoError(err)

	s.Equal(application.StatusRejected, got.Status)
	s.Equal("Dokumen tidak lengkap", got.RejectionReason)

	notes := s.notes.All("user-1")
	s.Require().Len(notes, 1)
	s.Equal("Pengajuan SKCK Ditolak", notes[0].Title)
	s.Equal("Pengajuan SKCK Anda ditolak dengan alasan: Dokumen tidak lengkap", notes[0].Message)
}

// An application transitions exactly once.
func (s *ReviewSuite) TestSecondReviewIsStale() {
	_, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionApproved, "")
	s.Require().NoError(err)
	first := s.stored(s.pending.ID.Hex())

	_, err = s.svc.SubmitReview(s.ctx, s.admin2, s.pending.ID.Hex(), DecisionRejected, "late")
	s.ErrorIs(err, apperror.ErrStaleState)

	after := s.stored(s.pending.ID.Hex())
	s.Equal(application.StatusApproved, after.Status)
	s.Equal(first.ReviewedAt, after.ReviewedAt)
	s.Equal("admin-1", after.ReviewedBy)
	s.Len(s.notes.All("user-1"), 1)
}

// Of two concurrent reviewers exactly one wins.
func (s *ReviewSuite) TestConcurrentReviewersExactlyOneWins() {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	s.svc.now = time.Now
	reviewers := []struct {
		p        auth.Principal
		decision string
	}{
		{s.admin, DecisionApproved},
		{s.admin2, DecisionRejected},
	}
	for _, r := range reviewers {
		wg.Add(1)
		go func(p auth.Principal, decision string) {
			defer wg.Done()
			_, err := s.svc.SubmitReview(s.ctx, p, s.pending.ID.Hex(), decision, "duplikat")
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(r.p, r.decision)
	}
	wg.Wait()

	var wins, stale int
	for _, err := range errs {
		if err == nil {
			wins++
		} else if errors.Is(err, apperror.ErrStaleState) {
			stale++
		}
	}
	s.Equal(1, wins)
	s.Equal(1, stale)
	s.Len(s.notes.All("user-1"), 1)
	s.True(s.stored(s.pending.ID.Hex()).Status.Terminal())
}

func (s *ReviewSuite) TestRejectsNonAdminAndBadInput() {
	_, err := s.svc.SubmitReview(s.ctx, s.user, s.pending.ID.Hex(), DecisionApproved, "")
	s.ErrorIs(err, apperror.ErrForbidden)

	_, err = s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), "maybe", "")
	s.ErrorIs(err, apperror.ErrValidation)
	s.NotErrorIs(err, apperror.ErrMissingReason)

	_, err = s.svc.SubmitReview(s.ctx, s.admin, "64b000000000000000000000", DecisionApproved, "")
	s.ErrorIs(err, apperror.ErrNotFound)

	_, err = s.svc.ListPending(s.ctx, s.user)
	s.ErrorIs(err, apperror.ErrForbidden)
	_, err = s.svc.ListHistory(s.ctx, s.user, FilterAll)
	s.ErrorIs(err, apperror.ErrForbidden)
	_, err = s.svc.Stats(s.ctx, s.user)
	s.ErrorIs(err, apperror.ErrForbidden)

	s.Equal(0, s.apps.CallCount("Review"))
}

func (s *ReviewSuite) TestTransitionFailureSurfaces() {
	s.apps.FailOn("Review", apperror.StoreUnavailable("review application", errors.New("down")))

	_, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionApproved, "")
	s.ErrorIs(err, apperror.ErrStoreUnavailable)
	s.Equal(application.StatusPending, s.stored(s.pending.ID.Hex()).Status)
	s.Empty(s.notes.All("user-1"))
}

// A failed notification write does not fail the review; the dispatcher
// delivers it afterwards.
func (s *ReviewSuite) TestNotificationFailureIsRecoveredByDispatcher() {
	s.notes.FailOn("Insert", apperror.StoreUnavailable("insert notification", errors.New("down")))

	got, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionRejected, "Foto buram")
	s.Require().NoError(err)
	s.Equal(application.StatusRejected, got.Status)
	s.Empty(s.notes.All("user-1"))
	s.False(s.stored(s.pending.ID.Hex()).Outbox.Dispatched)

	n, err := s.svc.DispatchPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(0, n)

	s.notes.FailOn("Insert", nil)
	n, err = s.svc.DispatchPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(1, n)

	notes := s.notes.All("user-1")
	s.Require().Len(notes, 1)
	s.Equal("Pengajuan SKCK Anda ditolak dengan alasan: Foto buram", notes[0].Message)
	s.True(s.stored(s.pending.ID.Hex()).Outbox.Dispatched)

	n, err = s.svc.DispatchPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(0, n)
}

// When only the outbox flag fails, re-dispatch must not duplicate the
// notification.
func (s *ReviewSuite) TestOutboxFlagFailureDoesNotDuplicate() {
	s.apps.FailOn("MarkOutboxDispatched", apperror.StoreUnavailable("mark outbox dispatched", errors.New("down")))

	_, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionApproved, "")
	s.Require().NoError(err)
	s.Len(s.notes.All("user-1"), 1)

	s.apps.FailOn("MarkOutboxDispatched", nil)
	n, err := s.svc.DispatchPending(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Len(s.notes.All("user-1"), 1)
	s.True(s.stored(s.pending.ID.Hex()).Outbox.Dispatched)
}

func (s *ReviewSuite) TestListPending() {
	other := s.putPending("user-2")
	_, err := s.svc.SubmitReview(s.ctx, s.admin, other.ID.Hex(), DecisionApproved, "")
	s.Require().NoError(err)

	pending, err := s.svc.ListPending(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
	s.Equal(s.pending.ID, pending[0].ID)
}

func (s *ReviewSuite) TestListHistoryFilters() {
	a := s.putPending("user-2")
	b := s.putPending("user-3")
	_, err := s.svc.SubmitReview(s.ctx, s.admin, s.pending.ID.Hex(), DecisionApproved, "")
	s.Require().NoError(err)
	_, err = s.svc.SubmitReview(s.ctx, s.admin, a.ID.Hex(), DecisionRejected, "NIK tidak sesuai")
	s.Require().NoError(err)
	_, err = s.svc.SubmitReview(s.ctx, s.admin, b.ID.Hex(), DecisionApproved, "")
	s.Require().NoError(err)
	s.putPending("user-4")

	all, err := s.svc.ListHistory(s.ctx, s.admin, FilterAll)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(b.ID, all[0].ID)
	s.Equal(a.ID, all[1].ID)
	s.Equal(s.pending.ID, all[2].ID)
	for i := 1; i < len(all); i++ {
		s.False(all[i].ReviewedAt.After(*all[i-1].ReviewedAt))
	}

	approved, err := s.svc.ListHistory(s.ctx, s.admin, FilterApproved)
	s.Require().NoError(err)
	s.Len(approved, 2)
	for _, app := range approved {
		s.Equal(application.StatusApproved, app.Status)
	}

	rejected, err := s.svc.ListHistory(s.ctx, s.admin, FilterRejected)
	s.Require().NoError(err)
	s.Require().Len(rejected, 1)
	s.Equal("NIK tidak sesuai", rejected[0].RejectionReason)

	_, err = s.svc.ListHistory(s.ctx, s.admin, "pending")
	s.ErrorIs(err, apperror.ErrValidation)
}

func (s *ReviewSuite) TestStats() {
	other := s.putPending("user-2")
	s.putPending("user-3")
	_, err := s.svc.SubmitReview(s.ctx, s.admin, other.ID.Hex(), DecisionRejected, "x")
	s.Require().NoError(err)

	st, err := s.svc.Stats(s.ctx, s.admin)
	s.Require().NoError(err)
	s.Equal(Stats{TotalUsers: 3, TotalApplications: 3, Pending: 2, Approved: 0, Rejected: 1}, *st)
}
