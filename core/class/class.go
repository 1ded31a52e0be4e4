package class

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
)

var ErrNotFound = core.NewNotFoundError("class not found")

type Class struct {
	ID           string      `json:"id" db:"id"`
	SchoolID     string      `json:"school_id" db:"school_id"`
	Name         string      `json:"name" db:"name"`
	Grade        string      `json:"grade" db:"grade"`
	AcademicYear string      `json:"academic_year" db:"academic_year"`
	Room         string      `json:"room" db:"room"`
	TeacherID    null.String `json:"teacher_id" db:"teacher_id"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at" db:"updated_at"`
}

type NewClass struct {
	Name         string      `json:"name" validate:"required,notblank,max=255"`
	Grade        string      `json:"grade" validate:"max=50"`
	AcademicYear string      `json:"academic_year" validate:"max=20"`
	Room         string      `json:"room" validate:"max=50"`
	TeacherID    null.String `json:"teacher_id" validate:"omitempty,uuid"`
}

func (nc *NewClass) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Grade = core.CleanString(nc.Grade)
	nc.AcademicYear = core.CleanString(nc.AcademicYear)
	nc.Room = core.CleanString(nc.Room)
	nc.TeacherID = core.CleanNullString(nc.TeacherID)
	return validate.Struct(nc)
}

// UpdateClass defines what may change on a Class. Nil fields are kept; an empty TeacherID unassigns the teacher.
type UpdateClass struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	Grade        *string `json:"grade" validate:"omitempty,max=50"`
	AcademicYear *string `json:"academic_year" validate:"omitempty,max=20"`
	Room         *string `json:"room" validate:"omitempty,max=50"`
	TeacherID    *string `json:"teacher_id" validate:"omitempty,nulluuid"`
}

func (uc *UpdateClass) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.Name, uc.Grade, uc.AcademicYear, uc.Room, uc.TeacherID} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if uc.Name != nil && *uc.Name == "" {
		uc.Name = nil
	}
	return validate.Struct(uc)
}

// Apply returns `cls` with the update applied.
func (uc *UpdateClass) Apply(cls Class) Class {
	if uc.Name != nil {
		cls.Name = *uc.Name
	}
	if uc.Grade != nil {
		cls.Grade = *uc.Grade
	}
	if uc.AcademicYear != nil {
		cls.AcademicYear = *uc.AcademicYear
	}
	if uc.Room != nil {
		cls.Room = *uc.Room
	}
	if uc.TeacherID != nil {
		cls.TeacherID = null.NewString(*uc.TeacherID, *uc.TeacherID != "")
	}
	return cls
}

type QueryFilter struct {
	SchoolID     string
	Search       string `query:"search"`
	Grade        string `query:"grade"`
	TeacherID    string `query:"teacher_id" validate:"omitempty,uuid"`
	AcademicYear string `query:"academic_year"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Grade = core.CleanString(qf.Grade)
	qf.TeacherID = core.CleanString(qf.TeacherID)
	qf.AcademicYear = core.CleanString(qf.AcademicYear)
}

var (
	OrderingFields  = []string{"name", "grade", "academic_year", "room", "created_at"}
	DefaultOrdering = core.DBOrdering{Field: "name", Ascending: true}
)

type (
	Repository interface {
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, schoolID, id string) (Class, error)
		// QueryClasses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Class.Name or Class.Room.
		QueryClasses(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Class, error)
		UpdateClass(ctx context.Context, cls Class) (Class, error)
		DeleteClass(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID string, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	return svc.repo.CreateClass(ctx, Class{
		SchoolID:     schoolID,
		Name:         nc.Name,
		Grade:        nc.Grade,
		AcademicYear: nc.AcademicYear,
		Room:         nc.Room,
		TeacherID:    nc.TeacherID,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) Get(ctx context.Context, schoolID, id string) (Class, error) {
	return svc.repo.GetClass(ctx, schoolID, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Class, error) {
	ordering = core.CleanOrderings(ordering, OrderingFields, DefaultOrdering)
	return svc.repo.QueryClasses(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, cls Class, uc UpdateClass) (Class, error) {
	cls = uc.Apply(cls)
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteClass(ctx, schoolID, id)
}
