package student

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
)

var ErrNotFound = core.NewNotFoundError("student not found")

type Student struct {
	ID          string      `json:"id" db:"id"`
	SchoolID    string      `json:"school_id" db:"school_id"`
	FirstName   string      `json:"first_name" db:"first_name"`
	LastName    string      `json:"last_name" db:"last_name"`
	Grade       string      `json:"grade" db:"grade"`
	ClassID     null.String `json:"class_id" db:"class_id"`
	ParentID    null.String `json:"parent_id" db:"parent_id"`
	DateOfBirth core.Date   `json:"date_of_birth" db:"date_of_birth"`
	IsActive    bool        `json:"is_active" db:"is_active"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

func (s Student) FullName() string {
	return core.CleanString(s.FirstName + " " + s.LastName)
}

type NewStudent struct {
	FirstName   string      `json:"first_name" validate:"required,max=255"`
	LastName    string      `json:"last_name" validate:"required,max=255"`
	Grade       string      `json:"grade" validate:"max=50"`
	ClassID     null.String `json:"class_id" validate:"omitempty,uuid"`
	ParentID    null.String `json:"parent_id" validate:"omitempty,uuid"`
	DateOfBirth core.Date   `json:"date_of_birth"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.Grade = core.CleanString(ns.Grade)
	ns.ClassID = core.CleanNullString(ns.ClassID)
	ns.ParentID = core.CleanNullString(ns.ParentID)
	return validate.Struct(ns)
}

// UpdateStudent defines what may change on a Student.
// Nil fields are kept; empty ClassID or ParentID remove the existing link.
type UpdateStudent struct {
	FirstName   *string    `json:"first_name" validate:"omitempty,max=255"`
	LastName    *string    `json:"last_name" validate:"omitempty,max=255"`
	Grade       *string    `json:"grade" validate:"omitempty,max=50"`
	ClassID     *string    `json:"class_id" validate:"omitempty,nulluuid"`
	ParentID    *string    `json:"parent_id" validate:"omitempty,nulluuid"`
	DateOfBirth *core.Date `json:"date_of_birth"`
	IsActive    *bool      `json:"is_active"`
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	for _, s := range []*string{us.FirstName, us.LastName, us.Grade, us.ClassID, us.ParentID} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if us.FirstName != nil && *us.FirstName == "" {
		us.FirstName = nil
	}
	if us.LastName != nil && *us.LastName == "" {
		us.LastName = nil
	}
	return validate.Struct(us)
}

func (us *UpdateStudent) Apply(s Student) Student {
	if us.FirstName != nil {
		s.FirstName = *us.FirstName
	}
	if us.LastName != nil {
		s.LastName = *us.LastName
	}
	if us.Grade != nil {
		s.Grade = *us.Grade
	}
	if us.ClassID != nil {
		s.ClassID = null.NewString(*us.ClassID, *us.ClassID != "")
	}
	if us.ParentID != nil {
		s.ParentID = null.NewString(*us.ParentID, *us.ParentID != "")
	}
	if us.DateOfBirth != nil {
		s.DateOfBirth = *us.DateOfBirth
	}
	if us.IsActive != nil {
		s.IsActive = *us.IsActive
	}
	return s
}

type QueryFilter struct {
	SchoolID string
	Search   string `query:"search"`
	ClassID  string `query:"class_id" validate:"omitempty,uuid"`
	ParentID string `query:"parent_id" validate:"omitempty,uuid"`
	Grade    string `query:"grade"`
	IsActive *bool  `query:"is_active"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ClassID = core.CleanString(qf.ClassID)
	qf.ParentID = core.CleanString(qf.ParentID)
	qf.Grade = core.CleanString(qf.Grade)
}

var (
	OrderingFields  = []string{"first_name", "last_name", "grade", "date_of_birth", "created_at"}
	DefaultOrdering = core.DBOrdering{Field: "last_name", Ascending: true}
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, s Student) (Student, error)
		GetStudent(ctx context.Context, schoolID, id string) (Student, error)
		// QueryStudents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Student.FirstName or Student.LastName.
		QueryStudents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error)
		UpdateStudent(ctx context.Context, s Student) (Student, error)
		DeleteStudent(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID string, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	return svc.repo.CreateStudent(ctx, Student{
		SchoolID:    schoolID,
		FirstName:   ns.FirstName,
		LastName:    ns.LastName,
		Grade:       ns.Grade,
		ClassID:     ns.ClassID,
		ParentID:    ns.ParentID,
		DateOfBirth: ns.DateOfBirth,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Get(ctx context.Context, schoolID, id string) (Student, error) {
	return svc.repo.GetStudent(ctx, schoolID, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Student, error) {
	ordering = core.CleanOrderings(ordering, OrderingFields, DefaultOrdering)
	return svc.repo.QueryStudents(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, s Student, us UpdateStudent) (Student, error) {
	s = us.Apply(s)
	s.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateStudent(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteStudent(ctx, schoolID, id)
}
