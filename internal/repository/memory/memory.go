// Package memory holds in-process implementations of the service stores for
// development and tests. All stores created from one DB share state, so
// deleting a guest cascades to its descriptors, attendance and tokens.
package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

type DB struct {
	mu          sync.RWMutex
	users       map[uuid.UUID]domain.User
	guests      map[uuid.UUID]domain.Guest
	descriptors map[string]domain.DescriptorSet
	attendance  map[domain.AttendanceKey]domain.AttendanceRecord
	tokens      map[string]domain.CheckInToken

	keys keyedMutex
}

func New() *DB {
	return &DB{
		users:       make(map[uuid.UUID]domain.User),
		guests:      make(map[uuid.UUID]domain.Guest),
		descriptors: make(map[string]domain.DescriptorSet),
		attendance:  make(map[domain.AttendanceKey]domain.AttendanceRecord),
		tokens:      make(map[string]domain.CheckInToken),
	}
}

func (db *DB) Users() *UserStore             { return &UserStore{db: db} }
func (db *DB) Guests() *GuestStore           { return &GuestStore{db: db} }
func (db *DB) Descriptors() *DescriptorStore { return &DescriptorStore{db: db} }
func (db *DB) Attendance() *AttendanceStore  { return &AttendanceStore{db: db} }
func (db *DB) Tokens() *TokenStore           { return &TokenStore{db: db} }

// deleteGuestLocked removes a guest and everything that references it.
// Callers hold db.mu.
func (db *DB) deleteGuestLocked(id uuid.UUID) {
	delete(db.guests, id)
	delete(db.descriptors, domain.GuestIdentity(id, "").Key())
	for key := range db.attendance {
		if key.Kind == domain.IdentityGuest && key.ID == id {
			delete(db.attendance, key)
		}
	}
	for hash, tok := range db.tokens {
		if tok.GuestID == id {
			delete(db.tokens, hash)
		}
	}
}

func (db *DB) attendanceRecord(key domain.AttendanceKey) (domain.AttendanceRecord, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	rec, ok := db.attendance[key]
	return rec, ok
}

func cloneRecord(r domain.AttendanceRecord) *domain.AttendanceRecord {
	out := r
	if r.CheckInTime != nil {
		t := *r.CheckInTime
		out.CheckInTime = &t
	}
	if r.CheckOutTime != nil {
		t := *r.CheckOutTime
		out.CheckOutTime = &t
	}
	return &out
}

func sortNewestFirst(records []*domain.AttendanceRecord) {
	sort.Slice(records, func(i, j int) bool {
		return dateBefore(records[j].Date, records[i].Date)
	})
}

func dateBefore(a, b domain.Date) bool {
	return a.Time(time.UTC).Before(b.Time(time.UTC))
}
