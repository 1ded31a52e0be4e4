package dummydb

import (
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/class"
	"github.com/trezcool/pta/core/expense"
	"github.com/trezcool/pta/core/parent"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/school"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
	"github.com/trezcool/pta/storage/database"
)

var errConnRefused = errors.New("dial tcp: connection refused")

type (
	// DB is an in-memory store with the same semantics as the SQL repositories.
	DB struct {
		down atomic.Bool

		school  *table[school.School]
		user    *table[user.User]
		class   *table[class.Class]
		parent  *table[parent.Parent]
		student *table[student.Student]
		payment *table[payment.Payment]
		expense *table[expense.Expense]
	}

	table[T any] struct {
		sync.RWMutex
		rows map[string]T
	}

	// comparators compare 2 rows on a given ordering field.
	comparators[T any] map[string]func(a, b T) int
)

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func Open() (*DB, error) {
	return &DB{
		school:  newTable[school.School](),
		user:    newTable[user.User](),
		class:   newTable[class.Class](),
		parent:  newTable[parent.Parent](),
		student: newTable[student.Student](),
		payment: newTable[payment.Payment](),
		expense: newTable[expense.Expense](),
	}, nil
}

// SetUnavailable makes every operation fail as if the database could not be reached.
func (db *DB) SetUnavailable(down bool) {
	db.down.Store(down)
}

func (db *DB) check() error {
	if db.down.Load() {
		return core.NewUnavailableError(errConnRefused)
	}
	return nil
}

// Flush empties all the tables.
func (db *DB) Flush() {
	flush(db.school)
	flush(db.user)
	flush(db.class)
	flush(db.parent)
	flush(db.student)
	flush(db.payment)
	flush(db.expense)
}

func flush[T any](t *table[T]) {
	t.Lock()
	defer t.Unlock()
	t.rows = make(map[string]T)
}

// all returns the rows matching `keep` (all rows when nil). Callers must hold the lock.
func (t *table[T]) all(keep func(T) bool) []T {
	rows := make([]T, 0, len(t.rows))
	for _, row := range t.rows {
		if keep == nil || keep(row) {
			rows = append(rows, row)
		}
	}
	return rows
}

// sortRows sorts rows in place following `ordering`. Unknown fields are ignored.
func sortRows[T any](rows []T, ordering []core.DBOrdering, cmps comparators[T]) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ordering {
			cmp, ok := cmps[ord.Field]
			if !ok {
				continue
			}
			if c := cmp(rows[i], rows[j]); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return false
	})
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// matchesAny reports whether `term` is empty or found in one of `vals`.
func matchesAny(term string, vals ...string) bool {
	if term == "" {
		return true
	}
	for _, v := range vals {
		if containsFold(v, term) {
			return true
		}
	}
	return false
}

func NewRepositories(db *DB) database.Repositories {
	return database.Repositories{
		School:  NewSchoolRepository(db),
		User:    NewUserRepository(db),
		Class:   NewClassRepository(db),
		Parent:  NewParentRepository(db),
		Student: NewStudentRepository(db),
		Payment: NewPaymentRepository(db),
		Expense: NewExpenseRepository(db),
		Report:  NewReportRepository(db),
	}
}
