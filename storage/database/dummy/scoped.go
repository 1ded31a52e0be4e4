package dummydb

import (
	"github.com/google/uuid"

	"github.com/trezcool/pta/core"
)

// scopedTable holds the CRUD logic shared by the tables whose rows belong to a school.
type scopedTable[T any] struct {
	db       *DB
	t        *table[T]
	notFound error
	schoolOf func(T) string
	idOf     func(T) string
	setID    func(*T, string)
}

func (s scopedTable[T]) create(row T) (T, error) {
	var zero T
	if err := s.db.check(); err != nil {
		return zero, err
	}
	s.t.Lock()
	defer s.t.Unlock()

	s.setID(&row, uuid.New().String())
	s.t.rows[s.idOf(row)] = row
	return row, nil
}

func (s scopedTable[T]) get(schoolID, id string) (T, error) {
	var zero T
	if err := s.db.check(); err != nil {
		return zero, err
	}
	s.t.RLock()
	defer s.t.RUnlock()

	row, ok := s.t.rows[id]
	if !ok || s.schoolOf(row) != schoolID {
		return zero, s.notFound
	}
	return row, nil
}

func (s scopedTable[T]) find(keep func(T) bool) (T, error) {
	var zero T
	if err := s.db.check(); err != nil {
		return zero, err
	}
	s.t.RLock()
	defer s.t.RUnlock()

	for _, row := range s.t.rows {
		if keep(row) {
			return row, nil
		}
	}
	return zero, s.notFound
}

func (s scopedTable[T]) query(schoolID string, keep func(T) bool, ordering []core.DBOrdering, cmps comparators[T]) ([]T, error) {
	if err := s.db.check(); err != nil {
		return nil, err
	}
	s.t.RLock()
	defer s.t.RUnlock()

	rows := s.t.all(func(row T) bool {
		return s.schoolOf(row) == schoolID && (keep == nil || keep(row))
	})
	sortRows(rows, ordering, cmps)
	return rows, nil
}

func (s scopedTable[T]) update(row T) (T, error) {
	var zero T
	if err := s.db.check(); err != nil {
		return zero, err
	}
	s.t.Lock()
	defer s.t.Unlock()

	orig, ok := s.t.rows[s.idOf(row)]
	if !ok || s.schoolOf(orig) != s.schoolOf(row) {
		return zero, s.notFound
	}
	s.t.rows[s.idOf(row)] = row
	return row, nil
}

func (s scopedTable[T]) remove(schoolID, id string) error {
	if err := s.db.check(); err != nil {
		return err
	}
	s.t.Lock()
	defer s.t.Unlock()

	row, ok := s.t.rows[id]
	if !ok || s.schoolOf(row) != schoolID {
		return s.notFound
	}
	delete(s.t.rows, id)
	return nil
}
