package review

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"

	"SKCKPortal/internal/application"
	"SKCKPortal/internal/application/applicationtest"
	"SKCKPortal/internal/auth"
	"SKCKPortal/internal/notification"
	"SKCKPortal/internal/notification/notificationtest"
	"SKCKPortal/pkg/apperror"
)

func TestDispatcherDeliversOnStart(t *testing.T) {
	ctx := context.Background()
	apps := applicationtest.NewMemoryStore()
	notes := notificationtest.NewMemoryStore()
	hub := notification.NewHub(notes, time.Hour, zap.NewNop())
	defer hub.Close()
	svc := NewService(apps, notification.NewService(notes, hub, nil, nil, zap.NewNop()), staticUsers(1), zap.NewNop())

	app := apps.Put(application.Application{UserID: "u1", Status: application.StatusPending, CreatedAt: time.Now()})
	notes.FailOn("Insert", apperror.StoreUnavailable("insert notification", errors.New("down")))
	_, err := svc.SubmitReview(ctx, auth.Principal{ID: "a1", Role: auth.RoleAdmin}, app.ID.Hex(), DecisionApproved, "")
	require.NoError(t, err)
	notes.FailOn("Insert", nil)

	lc := fxtest.NewLifecycle(t)
	NewDispatcher(svc, time.Hour, 10, zap.NewNop()).Start(lc)
	lc.RequireStart()

	assert.Eventually(t, func() bool { return len(notes.All("u1")) == 1 }, time.Second, 10*time.Millisecond)
	lc.RequireStop()

	stored, err := apps.GetByID(ctx, app.ID.Hex())
	require.NoError(t, err)
	assert.True(t, stored.Outbox.Dispatched)
}

func TestDispatcherSweepSurvivesStoreFailure(t *testing.T) {
	apps := applicationtest.NewMemoryStore()
	apps.FailOn("PendingOutbox", apperror.StoreUnavailable("pending outbox", errors.New("down")))
	notes := notificationtest.NewMemoryStore()
	svc := NewService(apps, notification.NewService(notes, nil, nil, nil, zap.NewNop()), staticUsers(0), zap.NewNop())

	d := NewDispatcher(svc, time.Minute, 10, zap.NewNop())
	d.Sweep(context.Background())
	assert.Equal(t, 1, apps.CallCount("PendingOutbox"))
}
