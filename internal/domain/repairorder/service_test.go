package repairorder_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"garageflow/internal/core/apperror"
	appctx "garageflow/internal/core/context"
	"garageflow/internal/core/id"
	"garageflow/internal/core/tx"
	"garageflow/internal/domain"
	"garageflow/internal/domain/repairorder"
)

var startedAt = time.Date(2026, 5, 4, 8, 15, 0, 0, time.UTC)

type eventLog struct{ events []domain.Event }

func (l *eventLog) Publish(_ context.Context, e domain.Event) error {
	l.events = append(l.events, e)
	return nil
}

type fixture struct {
	ctx      context.Context
	garage   id.ID
	repo     *repairorder.MockRepository
	files    *repairorder.MockFileStore
	vehicles *repairorder.MockVehicleOwnership
	events   *eventLog
	svc      *repairorder.Service
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	garage := id.New()
	f := &fixture{
		ctx:      appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "mechanic-1", GarageID: garage.String()}),
		garage:   garage,
		repo:     repairorder.NewMockRepository(ctrl),
		files:    repairorder.NewMockFileStore(ctrl),
		vehicles: repairorder.NewMockVehicleOwnership(ctrl),
		events:   &eventLog{},
	}
	f.svc = repairorder.NewService(repairorder.Config{
		Repo:      f.repo,
		Files:     f.files,
		Vehicles:  f.vehicles,
		TxManager: tx.Passthrough,
		Events:    f.events,
		Now:       func() time.Time { return startedAt },
	})
	return f
}

func (f *fixture) pending() *repairorder.RepairOrder {
	o := repairorder.NewRepairOrder(id.New(), id.New(), "brake noise")
	o.GarageID = f.garage
	return o
}

func TestCanTransition(t *testing.T) {
	assert.True(t, repairorder.CanTransition(repairorder.StatusPending, repairorder.StatusInProgress))
	assert.True(t, repairorder.CanTransition(repairorder.StatusInProgress, repairorder.StatusCancelled))
	assert.True(t, repairorder.CanTransition(repairorder.StatusCompleted, repairorder.StatusDelivered))
	assert.False(t, repairorder.CanTransition(repairorder.StatusCompleted, repairorder.StatusCancelled))
	assert.False(t, repairorder.CanTransition(repairorder.StatusDelivered, repairorder.StatusPending))
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	clientID, vehicleID := id.New(), id.New()

	f.vehicles.EXPECT().BelongsTo(gomock.Any(), vehicleID, clientID).Return(nil)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	o, err := f.svc.Create(f.ctx, repairorder.CreateInput{ClientID: clientID, VehicleID: vehicleID, Complaint: "  vidange "})

	require.NoError(t, err)
	assert.Equal(t, repairorder.StatusPending, o.Status)
	assert.Equal(t, f.garage, o.GarageID)
	assert.Equal(t, "vidange", o.Complaint)
	assert.Equal(t, "mechanic-1", o.CreatedBy)
}

func TestCreate_VehicleOfAnotherClient(t *testing.T) {
	f := newFixture(t)
	rule := apperror.NewBusinessRule(apperror.CodeBusinessRule, "vehicle belongs to another client")
	f.vehicles.EXPECT().BelongsTo(gomock.Any(), gomock.Any(), gomock.Any()).Return(rule)

	_, err := f.svc.Create(f.ctx, repairorder.CreateInput{ClientID: id.New(), VehicleID: id.New()})

	assert.ErrorIs(t, err, rule)
}

func TestStart_UploadsThenAttachesInOneWrite(t *testing.T) {
	f := newFixture(t)
	o := f.pending()

	f.repo.EXPECT().GetByID(gomock.Any(), o.ID).Return(o, nil)
	gomock.InOrder(
		f.files.EXPECT().Upload(gomock.Any(), f.garage, gomock.Any(), "image/jpeg", gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.ID, key, _ string, _ any) (string, error) {
				assert.True(t, strings.HasSuffix(key, "/01-front.jpg"), key)
				return "https://blob/1", nil
			}),
		f.files.EXPECT().Upload(gomock.Any(), f.garage, gomock.Any(), "image/jpeg", gomock.Any()).
			Return("https://blob/2", nil),
	)
	f.repo.EXPECT().GetForUpdate(gomock.Any(), o.ID).Return(o, nil)
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, got *repairorder.RepairOrder) error {
			assert.Equal(t, repairorder.StatusInProgress, got.Status)
			assert.Equal(t, []string{"https://blob/1", "https://blob/2"}, got.PhotoURLs)
			return nil
		})

	got, err := f.svc.Start(f.ctx, o.ID, []repairorder.Photo{
		{Name: "front.jpg", ContentType: "image/jpeg", Body: strings.NewReader("a")},
		{Name: "dash.jpg", ContentType: "image/jpeg", Body: strings.NewReader("b")},
	})

	require.NoError(t, err)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, startedAt, *got.StartedAt)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, domain.EventRepairOrderTransitioned, f.events.events[0].EventType)
}

func TestStart_UploadFailureLeavesOrderUntouched(t *testing.T) {
	f := newFixture(t)
	o := f.pending()

	f.repo.EXPECT().GetByID(gomock.Any(), o.ID).Return(o, nil)
	f.files.EXPECT().Upload(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return("", errors.New("503"))

	_, err := f.svc.Start(f.ctx, o.ID, []repairorder.Photo{{Name: "front.jpg", Body: strings.NewReader("a")}})

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeBusinessRule))
	assert.Equal(t, repairorder.StatusPending, o.Status)
	assert.Empty(t, f.events.events)
}

func TestStart_RejectsWrongStatusBeforeUpload(t *testing.T) {
	f := newFixture(t)
	o := f.pending()
	o.Status = repairorder.StatusCompleted

	f.repo.EXPECT().GetByID(gomock.Any(), o.ID).Return(o, nil)

	_, err := f.svc.Start(f.ctx, o.ID, []repairorder.Photo{{Name: "x.jpg", Body: strings.NewReader("a")}})

	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestStart_TooManyPhotos(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Start(f.ctx, id.New(), make([]repairorder.Photo, repairorder.MaxPhotos+1))

	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestTransition(t *testing.T) {
	t.Run("complete stamps time", func(t *testing.T) {
		f := newFixture(t)
		o := f.pending()
		o.Status = repairorder.StatusInProgress

		f.repo.EXPECT().GetForUpdate(gomock.Any(), o.ID).Return(o, nil)
		f.repo.EXPECT().Update(gomock.Any(), o).Return(nil)

		got, err := f.svc.Transition(f.ctx, o.ID, repairorder.StatusCompleted)

		require.NoError(t, err)
		require.NotNil(t, got.CompletedAt)
		assert.Equal(t, startedAt, *got.CompletedAt)
	})

	t.Run("delivered order cannot be cancelled", func(t *testing.T) {
		f := newFixture(t)
		o := f.pending()
		o.Status = repairorder.StatusDelivered

		f.repo.EXPECT().GetForUpdate(gomock.Any(), o.ID).Return(o, nil)

		_, err := f.svc.Transition(f.ctx, o.ID, repairorder.StatusCancelled)

		assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
		assert.Empty(t, f.events.events)
	})
}
