package sqlxrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"net"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/payment"
	"github.com/trezcool/pta/core/report"
	"github.com/trezcool/pta/core/student"
	"github.com/trezcool/pta/core/user"
)

func TestUsersQuery(t *testing.T) {
	active := true
	stmt, args, err := usersQuery(
		user.QueryFilter{SchoolID: "sch", Search: "jo_hn", Roles: []string{"parent", "teacher"}, IsActive: &active},
		core.DBOrdering{Field: "name", Ascending: true},
	)
	require.NoError(t, err)

	assert.Equal(t,
		selectUsers+` WHERE school_id = $1 AND (name ILIKE $2 OR email ILIKE $3) AND role IN ($4, $5) AND is_active = $6 ORDER BY name ASC`,
		stmt,
	)
	assert.Equal(t, []interface{}{"sch", `%jo\_hn%`, `%jo\_hn%`, "parent", "teacher", true}, args)
}

func TestStudentsQuery(t *testing.T) {
	tests := []struct {
		name      string
		filter    student.QueryFilter
		wantWhere string
		wantArgs  []interface{}
	}{
		{
			name:      "school only",
			filter:    student.QueryFilter{SchoolID: "sch"},
			wantWhere: ` WHERE school_id = $1`,
			wantArgs:  []interface{}{"sch"},
		},
		{
			name:      "parent scope",
			filter:    student.QueryFilter{SchoolID: "sch", ParentID: "par", Grade: "3"},
			wantWhere: ` WHERE school_id = $1 AND parent_id = $2 AND grade = $3`,
			wantArgs:  []interface{}{"sch", "par", "3"},
		},
		{
			name:      "class and search",
			filter:    student.QueryFilter{SchoolID: "sch", Search: "50%", ClassID: "cls"},
			wantWhere: ` WHERE school_id = $1 AND (first_name ILIKE $2 OR last_name ILIKE $3) AND class_id = $4`,
			wantArgs:  []interface{}{"sch", `%50\%%`, `%50\%%`, "cls"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, args, err := studentsQuery(tt.filter, student.DefaultOrdering)
			require.NoError(t, err)
			assert.Equal(t, selectStudents+tt.wantWhere+" ORDER BY last_name ASC", stmt)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestPaymentsQuery_DateRange(t *testing.T) {
	from := core.NewDate(2021, time.January, 1)
	to := core.NewDate(2021, time.June, 30)

	stmt, args, err := paymentsQuery(payment.QueryFilter{SchoolID: "sch", Status: "completed", PaidFrom: from, PaidTo: to})
	require.NoError(t, err)

	assert.Equal(t, selectPayments+` WHERE school_id = $1 AND status = $2 AND paid_on >= $3 AND paid_on <= $4`, stmt)
	require.Len(t, args, 4)
	// dates are bound as is; the driver reads them through their Valuer
	assert.Equal(t, from, args[2])
	assert.Equal(t, to, args[3])
	val, err := args[2].(driver.Valuer).Value()
	require.NoError(t, err)
	assert.Equal(t, from.Time, val)
}

func TestPeriodQuery(t *testing.T) {
	q := periodQuery("sch", report.Period{From: core.NewDate(2021, time.March, 1)}, "incurred_on")
	stmt, args, err := q.build("SELECT 1 FROM expense")
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 FROM expense WHERE school_id = $1 AND incurred_on >= $2", stmt)
	assert.Len(t, args, 2)
}

func TestTrapErr(t *testing.T) {
	errNotFound := errors.New("not found")

	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, trapErr(nil, errNotFound))
	})

	t.Run("no rows", func(t *testing.T) {
		assert.Equal(t, errNotFound, trapErr(errors.Wrap(sql.ErrNoRows, "getting"), errNotFound))
	})

	t.Run("malformed uuid", func(t *testing.T) {
		assert.Equal(t, errNotFound, trapErr(&pq.Error{Code: pqInvalidText}, errNotFound))
	})

	unavailableTests := []struct {
		name string
		err  error
	}{
		{"connection refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}},
		{"conn done", sql.ErrConnDone},
		{"deadline", context.DeadlineExceeded},
		{"connection failure", &pq.Error{Code: "08006"}},
		{"admin shutdown", &pq.Error{Code: "57P01"}},
	}
	for _, tt := range unavailableTests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, core.IsUnavailable(trapErr(tt.err, errNotFound)))
		})
	}

	t.Run("query canceled is not unavailable", func(t *testing.T) {
		err := trapErr(&pq.Error{Code: pqQueryCanceled}, errNotFound)
		assert.False(t, core.IsUnavailable(err))
	})

	t.Run("foreign key", func(t *testing.T) {
		err := trapErr(&pq.Error{Code: pqForeignKeyViolation, Table: "student", Constraint: "student_class_id_fkey"}, errNotFound)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, []core.FieldError{{Field: "class_id", Error: "invalid value"}}, vErr.Fields)
	})

	t.Run("unique", func(t *testing.T) {
		err := trapErr(&pq.Error{Code: pqUniqueViolation, Table: "user", Constraint: "user_email_key"}, errNotFound)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, []core.FieldError{{Field: "email", Error: "already exists"}}, vErr.Fields)
	})
}
