package school

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/pta/core"
)

var ErrNotFound = core.NewNotFoundError("school not found")

// School is the tenant every other record belongs to.
type School struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Phone     string    `json:"phone" db:"phone"`
	Email     string    `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type NewSchool struct {
	Name    string `json:"name" validate:"required,notblank"`
	Address string `json:"address"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (ns *NewSchool) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Address = core.CleanString(ns.Address)
	ns.Phone = core.CleanString(ns.Phone)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	return validate.Struct(ns)
}

// UpdateSchool replaces the school's details; empty fields are kept.
type UpdateSchool struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone" validate:"omitempty,max=50"`
	Email   string `json:"email" validate:"omitempty,email"`
}

func (us *UpdateSchool) Validate(orig School, validate *validator.Validate) error {
	us.Name = orDefault(core.CleanString(us.Name), orig.Name)
	us.Address = orDefault(core.CleanString(us.Address), orig.Address)
	us.Phone = orDefault(core.CleanString(us.Phone), orig.Phone)
	us.Email = orDefault(core.CleanString(us.Email, true /* lower */), orig.Email)
	return validate.Struct(us)
}

func orDefault(s, dflt string) string {
	if s == "" {
		return dflt
	}
	return s
}

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool) (School, error) {
	now := time.Now().UTC()
	return svc.repo.CreateSchool(ctx, School{
		Name:      ns.Name,
		Address:   ns.Address,
		Phone:     ns.Phone,
		Email:     ns.Email,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (svc *Service) Get(ctx context.Context, id string) (School, error) {
	return svc.repo.GetSchoolByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, sch School, us UpdateSchool) (School, error) {
	sch.Name = us.Name
	sch.Address = us.Address
	sch.Phone = us.Phone
	sch.Email = us.Email
	sch.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateSchool(ctx, sch)
}
