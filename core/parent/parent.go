package parent

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
)

var ErrNotFound = core.NewNotFoundError("parent not found")

// Parent is a student's guardian. UserID links the record to a parent's login, when they have one.
type Parent struct {
	ID        string      `json:"id" db:"id"`
	SchoolID  string      `json:"school_id" db:"school_id"`
	UserID    null.String `json:"user_id" db:"user_id"`
	FirstName string      `json:"first_name" db:"first_name"`
	LastName  string      `json:"last_name" db:"last_name"`
	Email     string      `json:"email" db:"email"`
	Phone     string      `json:"phone" db:"phone"`
	Address   string      `json:"address" db:"address"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

func (p Parent) FullName() string {
	return core.CleanString(p.FirstName + " " + p.LastName)
}

type NewParent struct {
	UserID    null.String `json:"user_id" validate:"omitempty,uuid"`
	FirstName string      `json:"first_name" validate:"required,max=255"`
	LastName  string      `json:"last_name" validate:"required,max=255"`
	Email     string      `json:"email" validate:"omitempty,email"`
	Phone     string      `json:"phone" validate:"omitempty,max=50"`
	Address   string      `json:"address"`
}

func (np *NewParent) Validate(validate *validator.Validate) error {
	np.UserID = core.CleanNullString(np.UserID)
	np.FirstName = core.CleanString(np.FirstName)
	np.LastName = core.CleanString(np.LastName)
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.Phone = core.CleanString(np.Phone)
	np.Address = core.CleanString(np.Address)
	return validate.Struct(np)
}

// UpdateParent defines what may change on a Parent. Nil fields are kept; an empty UserID unlinks the login.
type UpdateParent struct {
	UserID    *string `json:"user_id" validate:"omitempty,nulluuid"`
	FirstName *string `json:"first_name" validate:"omitempty,max=255"`
	LastName  *string `json:"last_name" validate:"omitempty,max=255"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Address   *string `json:"address"`
}

func (up *UpdateParent) Validate(validate *validator.Validate) error {
	for _, s := range []*string{up.UserID, up.FirstName, up.LastName, up.Phone, up.Address} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if up.Email != nil {
		*up.Email = core.CleanString(*up.Email, true /* lower */)
	}
	// names cannot be blanked
	if up.FirstName != nil && *up.FirstName == "" {
		up.FirstName = nil
	}
	if up.LastName != nil && *up.LastName == "" {
		up.LastName = nil
	}
	return validate.Struct(up)
}

func (up *UpdateParent) Apply(p Parent) Parent {
	if up.UserID != nil {
		p.UserID = null.NewString(*up.UserID, *up.UserID != "")
	}
	if up.FirstName != nil {
		p.FirstName = *up.FirstName
	}
	if up.LastName != nil {
		p.LastName = *up.LastName
	}
	if up.Email != nil {
		p.Email = *up.Email
	}
	if up.Phone != nil {
		p.Phone = *up.Phone
	}
	if up.Address != nil {
		p.Address = *up.Address
	}
	return p
}

type QueryFilter struct {
	SchoolID string
	Search   string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

var (
	OrderingFields  = []string{"first_name", "last_name", "email", "created_at"}
	DefaultOrdering = core.DBOrdering{Field: "last_name", Ascending: true}
)

type (
	Repository interface {
		CreateParent(ctx context.Context, p Parent) (Parent, error)
		GetParent(ctx context.Context, schoolID, id string) (Parent, error)
		GetParentByUserID(ctx context.Context, userID string) (Parent, error)
		// QueryParents applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of the names, Email or Phone.
		QueryParents(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Parent, error)
		UpdateParent(ctx context.Context, p Parent) (Parent, error)
		DeleteParent(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID string, np NewParent) (Parent, error) {
	now := time.Now().UTC()
	return svc.repo.CreateParent(ctx, Parent{
		SchoolID:  schoolID,
		UserID:    np.UserID,
		FirstName: np.FirstName,
		LastName:  np.LastName,
		Email:     np.Email,
		Phone:     np.Phone,
		Address:   np.Address,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Get(ctx context.Context, schoolID, id string) (Parent, error) {
	return svc.repo.GetParent(ctx, schoolID, id)
}

// GetByUserID finds the Parent record linked to a parent's login.
func (svc *Service) GetByUserID(ctx context.Context, userID string) (Parent, error) {
	return svc.repo.GetParentByUserID(ctx, userID)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Parent, error) {
	ordering = core.CleanOrderings(ordering, OrderingFields, DefaultOrdering)
	return svc.repo.QueryParents(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, p Parent, up UpdateParent) (Parent, error) {
	p = up.Apply(p)
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateParent(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteParent(ctx, schoolID, id)
}
