package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/metrics"
	"github.com/saturnino-fabrica-de-software/presenca/internal/service"
)

var (
	_ service.UserStore       = (*UserRepository)(nil)
	_ service.GuestStore      = (*GuestRepository)(nil)
	_ service.DescriptorStore = (*DescriptorRepository)(nil)
	_ service.AttendanceStore = (*AttendanceRepository)(nil)
	_ service.TokenStore      = (*TokenRepository)(nil)
	_ metrics.StatsSource     = (*StatsRepository)(nil)
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func testSet(n int) domain.DescriptorSet {
	set := make(domain.DescriptorSet, n)
	for i := range set {
		d := make(domain.Descriptor, domain.DescriptorDimension)
		d[0] = float32(i)
		set[i] = d
	}
	return set
}

// UserRepository Tests

func TestUserRepository_GetByID(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      *domain.User
		wantErr   error
	}{
		{
			name: "successful retrieval",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "email", "name", "role", "enrolled"}).
					AddRow(userID, "staff@example.com", "Staff", "admin", true)
				mock.ExpectQuery(`SELECT u.id, u.email, u.name, u.role`).
					WithArgs(userID).
					WillReturnRows(rows)
			},
			want: &domain.User{ID: userID, Email: "staff@example.com", Name: "Staff", Role: "admin", Enrolled: true},
		},
		{
			name: "user not found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT u.id, u.email, u.name, u.role`).
					WithArgs(userID).
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrUserNotFound,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT u.id, u.email, u.name, u.role`).
					WithArgs(userID).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: errors.New("get user by id"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.mockSetup(mock)

			got, err := NewUserRepository(mock).GetByID(context.Background(), userID)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, domain.ErrUserNotFound) {
					assert.ErrorIs(t, err, domain.ErrUserNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUserRepository_Upsert(t *testing.T) {
	user := &domain.User{ID: uuid.New(), Email: "staff@example.com", Name: "Staff", Role: "staff"}

	t.Run("writes the account row", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO users .* ON CONFLICT \(id\) DO UPDATE`).
			WithArgs(user.ID, user.Email, user.Name, user.Role).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewUserRepository(mock).Upsert(context.Background(), user))
	})

	t.Run("email taken by another account", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO users`).
			WithArgs(user.ID, user.Email, user.Name, user.Role).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})

		err := NewUserRepository(mock).Upsert(context.Background(), user)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

// GuestRepository Tests

func TestGuestRepository_Create(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	guest := &domain.Guest{
		ID:             uuid.New(),
		Name:           "Ana",
		Email:          "ana@example.com",
		Consent:        true,
		ConsentAt:      &now,
		CreatedAt:      now,
		LastActivityAt: now,
		ExpiresAt:      now.Add(domain.DefaultGuestRetention),
	}
	set := testSet(5)

	t.Run("inserts guest and descriptors in one transaction", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO guests`).
			WithArgs(guest.ID, guest.Name, guest.Email, guest.Purpose, guest.Consent,
				guest.ConsentAt, guest.CreatedAt, guest.LastActivityAt, guest.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		for i, d := range set {
			mock.ExpectExec(`INSERT INTO face_descriptors \(guest_id, position, descriptor, created_at\)`).
				WithArgs(guest.ID, i, d.Vector()).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mock.ExpectCommit()

		require.NoError(t, NewGuestRepository(mock).Create(context.Background(), guest, set))
	})

	t.Run("duplicate email rolls back", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO guests`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: pgUniqueViolation})
		mock.ExpectRollback()

		err := NewGuestRepository(mock).Create(context.Background(), guest, set)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("descriptor failure rolls back", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO guests`).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec(`INSERT INTO face_descriptors`).
			WithArgs(guest.ID, 0, set[0].Vector()).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := NewGuestRepository(mock).Create(context.Background(), guest, set)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insert descriptor 0")
	})
}

func TestGuestRepository_Reenroll(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	guest := &domain.Guest{ID: uuid.New(), Name: "Ana", Consent: true, ConsentAt: &now, LastActivityAt: now, ExpiresAt: now}
	set := testSet(5)

	t.Run("replaces descriptors", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE guests`).
			WithArgs(guest.ID, guest.Name, guest.Purpose, guest.Consent, guest.ConsentAt, guest.LastActivityAt, guest.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(`DELETE FROM face_descriptors WHERE guest_id = \$1`).
			WithArgs(guest.ID).
			WillReturnResult(pgxmock.NewResult("DELETE", 5))
		for i, d := range set {
			mock.ExpectExec(`INSERT INTO face_descriptors`).
				WithArgs(guest.ID, i, d.Vector()).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mock.ExpectCommit()

		require.NoError(t, NewGuestRepository(mock).Reenroll(context.Background(), guest, set))
	})

	t.Run("unknown guest", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE guests`).
			WithArgs(guest.ID, guest.Name, guest.Purpose, guest.Consent, guest.ConsentAt, guest.LastActivityAt, guest.ExpiresAt).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))
		mock.ExpectRollback()

		err := NewGuestRepository(mock).Reenroll(context.Background(), guest, set)
		assert.ErrorIs(t, err, domain.ErrGuestNotFound)
	})
}

func TestGuestRepository_GetByEmail(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	guestID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		rows := pgxmock.NewRows([]string{
			"id", "name", "email", "purpose", "consent", "consent_at", "created_at", "last_activity_at", "expires_at",
		}).AddRow(guestID, "Ana", "ana@example.com", "meeting", true, &now, now, now, now.Add(time.Hour))
		mock.ExpectQuery(`SELECT id, name, email, .* FROM guests WHERE email = \$1`).
			WithArgs("ana@example.com").
			WillReturnRows(rows)

		got, err := NewGuestRepository(mock).GetByEmail(context.Background(), "ana@example.com")
		require.NoError(t, err)
		assert.Equal(t, guestID, got.ID)
		assert.Equal(t, "meeting", got.Purpose)
		require.NotNil(t, got.ConsentAt)
		assert.Equal(t, now.Add(time.Hour), got.ExpiresAt)
	})

	t.Run("not found", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM guests WHERE email = \$1`).
			WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewGuestRepository(mock).GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrGuestNotFound)
	})
}

func TestGuestRepository_Touch(t *testing.T) {
	id := uuid.New()
	at := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	expires := at.Add(domain.DefaultGuestRetention)

	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "refreshes retention", affected: 1},
		{name: "guest gone", affected: 0, wantErr: domain.ErrGuestNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(`UPDATE guests SET last_activity_at = GREATEST`).
				WithArgs(id, at, expires).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.affected))

			err := NewGuestRepository(mock).Touch(context.Background(), id, at, expires)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGuestRepository_DeleteExpired(t *testing.T) {
	now := time.Date(2024, 3, 11, 2, 0, 0, 0, time.UTC)

	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM guests WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := NewGuestRepository(mock).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

// DescriptorRepository Tests

func TestDescriptorRepository_Get(t *testing.T) {
	userID := uuid.New()

	t.Run("returns descriptors in position order", func(t *testing.T) {
		mock := newMock(t)
		first := pgvector.NewVector([]float32{0.1, 0.2})
		second := pgvector.NewVector([]float32{0.3, 0.4})
		rows := pgxmock.NewRows([]string{"descriptor"}).AddRow(first).AddRow(second)
		mock.ExpectQuery(`SELECT descriptor FROM face_descriptors WHERE user_id = \$1 ORDER BY position`).
			WithArgs(userID).
			WillReturnRows(rows)

		set, err := NewDescriptorRepository(mock).Get(context.Background(), domain.RegisteredUser(userID))
		require.NoError(t, err)
		assert.Equal(t, domain.DescriptorSet{{0.1, 0.2}, {0.3, 0.4}}, set)
	})

	t.Run("no descriptors", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT descriptor FROM face_descriptors WHERE guest_id = \$1`).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"descriptor"}))

		_, err := NewDescriptorRepository(mock).Get(context.Background(), domain.GuestIdentity(userID, ""))
		assert.ErrorIs(t, err, domain.ErrNotEnrolled)
	})

	t.Run("unknown kind", func(t *testing.T) {
		mock := newMock(t)

		_, err := NewDescriptorRepository(mock).Get(context.Background(), domain.Identity{Kind: "robot", ID: userID})
		assert.Error(t, err)
	})
}

func TestDescriptorRepository_Replace(t *testing.T) {
	userID := uuid.New()
	set := testSet(5)

	t.Run("locks the owner and swaps the set", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).
			WithArgs(userID).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(userID))
		mock.ExpectExec(`DELETE FROM face_descriptors WHERE user_id = \$1`).
			WithArgs(userID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
		for i, d := range set {
			mock.ExpectExec(`INSERT INTO face_descriptors \(user_id, position, descriptor, created_at\)`).
				WithArgs(userID, i, d.Vector()).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}
		mock.ExpectCommit()

		require.NoError(t, NewDescriptorRepository(mock).Replace(context.Background(), domain.RegisteredUser(userID), set))
	})

	t.Run("missing owner rolls back", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).
			WithArgs(userID).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := NewDescriptorRepository(mock).Replace(context.Background(), domain.RegisteredUser(userID), set)
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})
}

// TokenRepository Tests

func TestTokenRepository_Save(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	token := &domain.CheckInToken{Hash: "abc", GuestID: uuid.New(), ExpiresAt: now.Add(domain.DefaultTokenTTL), CreatedAt: now}

	t.Run("upserts per guest", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO checkin_tokens .* ON CONFLICT \(guest_id\) DO UPDATE`).
			WithArgs(token.Hash, token.GuestID, token.ExpiresAt, token.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewTokenRepository(mock).Save(context.Background(), token))
	})

	t.Run("guest deleted meanwhile", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectExec(`INSERT INTO checkin_tokens`).
			WithArgs(token.Hash, token.GuestID, token.ExpiresAt, token.CreatedAt).
			WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})

		err := NewTokenRepository(mock).Save(context.Background(), token)
		assert.ErrorIs(t, err, domain.ErrGuestNotFound)
	})
}

func TestTokenRepository_GetByHash(t *testing.T) {
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	guestID := uuid.New()

	t.Run("found", func(t *testing.T) {
		mock := newMock(t)
		rows := pgxmock.NewRows([]string{"token_hash", "guest_id", "expires_at", "created_at"}).
			AddRow("abc", guestID, now.Add(time.Hour), now)
		mock.ExpectQuery(`FROM checkin_tokens WHERE token_hash = \$1`).
			WithArgs("abc").
			WillReturnRows(rows)

		got, err := NewTokenRepository(mock).GetByHash(context.Background(), "abc")
		require.NoError(t, err)
		assert.Equal(t, guestID, got.GuestID)
		assert.Equal(t, "abc", got.Hash)
	})

	t.Run("unknown hash", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM checkin_tokens WHERE token_hash = \$1`).
			WithArgs("nope").
			WillReturnError(pgx.ErrNoRows)

		_, err := NewTokenRepository(mock).GetByHash(context.Background(), "nope")
		assert.ErrorIs(t, err, domain.ErrInvalidToken)
	})
}

func TestTokenRepository_DeleteExpired(t *testing.T) {
	now := time.Date(2024, 3, 4, 20, 0, 0, 0, time.UTC)

	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM checkin_tokens WHERE expires_at < \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 2))

	n, err := NewTokenRepository(mock).DeleteExpired(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

// AttendanceRepository Tests

func TestAttendanceRepository_CreateIfAbsent(t *testing.T) {
	checkIn := time.Date(2024, 3, 4, 8, 30, 0, 0, time.UTC)
	date := domain.DateOf(checkIn)
	guestID := uuid.New()

	newRecord := func(kind domain.IdentityKind) *domain.AttendanceRecord {
		return &domain.AttendanceRecord{
			ID:           uuid.New(),
			IdentityKind: kind,
			IdentityID:   guestID,
			Date:         date,
			CheckInTime:  &checkIn,
			Status:       domain.StatusPresent,
			CreatedAt:    checkIn,
			UpdatedAt:    checkIn,
		}
	}

	tests := []struct {
		name      string
		kind      domain.IdentityKind
		mockSetup func(mock pgxmock.PgxPoolIface, rec *domain.AttendanceRecord)
		want      bool
		wantErr   error
	}{
		{
			name: "inserted",
			kind: domain.IdentityGuest,
			mockSetup: func(mock pgxmock.PgxPoolIface, rec *domain.AttendanceRecord) {
				mock.ExpectExec(`INSERT INTO attendance_records .* ON CONFLICT \(identity_kind, identity_id, date\) DO NOTHING`).
					WithArgs(rec.ID, "guest", guestID, &guestID, date.Time(time.UTC), &checkIn,
						(*time.Time)(nil), "present", 0.0, checkIn, checkIn).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			want: true,
		},
		{
			name: "conflict reports false",
			kind: domain.IdentityUser,
			mockSetup: func(mock pgxmock.PgxPoolIface, rec *domain.AttendanceRecord) {
				mock.ExpectExec(`INSERT INTO attendance_records`).
					WithArgs(rec.ID, "user", guestID, (*uuid.UUID)(nil), date.Time(time.UTC), &checkIn,
						(*time.Time)(nil), "present", 0.0, checkIn, checkIn).
					WillReturnResult(pgxmock.NewResult("INSERT", 0))
			},
			want: false,
		},
		{
			name: "guest deleted",
			kind: domain.IdentityGuest,
			mockSetup: func(mock pgxmock.PgxPoolIface, _ *domain.AttendanceRecord) {
				mock.ExpectExec(`INSERT INTO attendance_records`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
						pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(&pgconn.PgError{Code: pgForeignKeyViolation})
			},
			wantErr: domain.ErrGuestNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			rec := newRecord(tt.kind)
			tt.mockSetup(mock, rec)

			got, err := NewAttendanceRepository(mock).CreateIfAbsent(context.Background(), rec)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func attendanceRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "identity_kind", "identity_id", "date", "check_in_time", "check_out_time",
		"status", "hours_worked", "created_at", "updated_at",
	})
}

func TestAttendanceRepository_Get(t *testing.T) {
	userID := uuid.New()
	checkIn := time.Date(2024, 3, 4, 9, 15, 0, 0, time.UTC)
	date := domain.DateOf(checkIn)
	key := domain.KeyFor(domain.RegisteredUser(userID), date)

	t.Run("maps columns", func(t *testing.T) {
		mock := newMock(t)
		recID := uuid.New()
		rows := attendanceRows().AddRow(recID, "user", userID, date.Time(time.UTC), &checkIn, nil,
			"late", 0.0, checkIn, checkIn)
		mock.ExpectQuery(`FROM attendance_records WHERE identity_kind = \$1 AND identity_id = \$2 AND date = \$3`).
			WithArgs("user", userID, date.Time(time.UTC)).
			WillReturnRows(rows)

		got, err := NewAttendanceRepository(mock).Get(context.Background(), key)
		require.NoError(t, err)
		assert.Equal(t, recID, got.ID)
		assert.Equal(t, domain.IdentityUser, got.IdentityKind)
		assert.Equal(t, date, got.Date)
		assert.Equal(t, domain.StatusLate, got.Status)
		assert.False(t, got.CheckedOut())
	})

	t.Run("absent", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`FROM attendance_records`).
			WithArgs("user", userID, date.Time(time.UTC)).
			WillReturnError(pgx.ErrNoRows)

		_, err := NewAttendanceRepository(mock).Get(context.Background(), key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestAttendanceRepository_CompleteCheckOut(t *testing.T) {
	userID := uuid.New()
	checkOut := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)
	rec := &domain.AttendanceRecord{
		IdentityKind: domain.IdentityUser,
		IdentityID:   userID,
		Date:         domain.DateOf(checkOut),
		CheckOutTime: &checkOut,
		HoursWorked:  8.5,
		Status:       domain.StatusPresent,
		UpdatedAt:    checkOut,
	}

	for _, tc := range []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "first check-out wins", affected: 1, want: true},
		{name: "already checked out", affected: 0, want: false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mock := newMock(t)
			mock.ExpectExec(`UPDATE attendance_records .* AND check_out_time IS NULL`).
				WithArgs("user", userID, rec.Date.Time(time.UTC), &checkOut, 8.5, "present", checkOut).
				WillReturnResult(pgxmock.NewResult("UPDATE", tc.affected))

			got, err := NewAttendanceRepository(mock).CompleteCheckOut(context.Background(), rec)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestAttendanceRepository_ListByIdentity(t *testing.T) {
	userID := uuid.New()
	day1 := time.Date(2024, 3, 5, 8, 0, 0, 0, time.UTC)
	day0 := day1.AddDate(0, 0, -1)
	limit := 30

	mock := newMock(t)
	rows := attendanceRows().
		AddRow(uuid.New(), "user", userID, domain.DateOf(day1).Time(time.UTC), &day1, nil, "present", 0.0, day1, day1).
		AddRow(uuid.New(), "user", userID, domain.DateOf(day0).Time(time.UTC), &day0, nil, "present", 0.0, day0, day0)
	mock.ExpectQuery(`ORDER BY date DESC LIMIT \$3`).
		WithArgs("user", userID, &limit).
		WillReturnRows(rows)

	got, err := NewAttendanceRepository(mock).ListByIdentity(context.Background(), domain.RegisteredUser(userID), limit)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.DateOf(day1), got[0].Date)
	assert.Equal(t, domain.DateOf(day0), got[1].Date)
}

func TestAttendanceRepository_ListByDate(t *testing.T) {
	date := domain.Date{Year: 2024, Month: time.March, Day: 4}

	mock := newMock(t)
	mock.ExpectQuery(`WHERE date = \$1 ORDER BY check_in_time`).
		WithArgs(date.Time(time.UTC)).
		WillReturnRows(attendanceRows())

	got, err := NewAttendanceRepository(mock).ListByDate(context.Background(), date)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

// StatsRepository Tests

func TestStatsRepository_Snapshot(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on the 5th is still the 4th in BRT.
	now := time.Date(2024, 3, 5, 1, 0, 0, 0, time.UTC)

	mock := newMock(t)
	mock.ExpectQuery(`SELECT \(SELECT COUNT\(\*\) FROM guests`).
		WithArgs(now, time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)).
		WillReturnRows(pgxmock.NewRows([]string{"active", "today"}).AddRow(int64(4), int64(7)))

	snap, err := NewStatsRepository(mock, brt).Snapshot(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, metrics.Snapshot{ActiveGuests: 4, CheckedInToday: 7}, snap)
}
