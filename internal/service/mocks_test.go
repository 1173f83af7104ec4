package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/provider"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, image []byte) (provider.Extraction, bool, error) {
	args := m.Called(ctx, image)
	return args.Get(0).(provider.Extraction), args.Bool(1), args.Error(2)
}

type MockAttendanceStore struct {
	mock.Mock
}

func (m *MockAttendanceStore) CreateIfAbsent(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceStore) Get(ctx context.Context, key domain.AttendanceKey) (*domain.AttendanceRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceStore) CompleteCheckOut(ctx context.Context, rec *domain.AttendanceRecord) (bool, error) {
	args := m.Called(ctx, rec)
	return args.Bool(0), args.Error(1)
}

func (m *MockAttendanceStore) ListByIdentity(ctx context.Context, identity domain.Identity, limit int) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, identity, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

func (m *MockAttendanceStore) ListByDate(ctx context.Context, date domain.Date) ([]*domain.AttendanceRecord, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AttendanceRecord), args.Error(1)
}

type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) Save(ctx context.Context, token *domain.CheckInToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) GetByHash(ctx context.Context, hash string) (*domain.CheckInToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CheckInToken), args.Error(1)
}

func (m *MockTokenStore) Delete(ctx context.Context, hash string) error {
	args := m.Called(ctx, hash)
	return args.Error(0)
}

func (m *MockTokenStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type MockGuestStore struct {
	mock.Mock
}

func (m *MockGuestStore) Create(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	args := m.Called(ctx, guest, set)
	return args.Error(0)
}

func (m *MockGuestStore) Reenroll(ctx context.Context, guest *domain.Guest, set domain.DescriptorSet) error {
	args := m.Called(ctx, guest, set)
	return args.Error(0)
}

func (m *MockGuestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Guest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guest), args.Error(1)
}

func (m *MockGuestStore) GetByEmail(ctx context.Context, email string) (*domain.Guest, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Guest), args.Error(1)
}

func (m *MockGuestStore) Touch(ctx context.Context, id uuid.UUID, at, expiresAt time.Time) error {
	args := m.Called(ctx, id, at, expiresAt)
	return args.Error(0)
}

func (m *MockGuestStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// descriptorAt returns a descriptor with every component set to v.
func descriptorAt(v float32) domain.Descriptor {
	d := make(domain.Descriptor, domain.DescriptorDimension)
	for i := range d {
		d[i] = v
	}
	return d
}

func goodExtraction(v float32) provider.Extraction {
	return provider.Extraction{
		Detection: provider.Detection{
			Confidence: 0.99,
			Box:        domain.BoundingBox{X: 220, Y: 140, Width: 200, Height: 200},
		},
		Descriptor: descriptorAt(v),
	}
}

func captures(n int) [][]byte {
	images := make([][]byte, n)
	for i := range images {
		images[i] = []byte{byte(i), 0xff}
	}
	return images
}
