package expense

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
)

var (
	ErrNotFound = core.NewNotFoundError("expense not found")

	categoryTag  = "expensecat"
	categoryText = "invalid expense category"
)

// Categories
const (
	CategorySupplies            = "supplies"
	CategoryEvents              = "events"
	CategoryTeacherAppreciation = "teacher_appreciation"
	CategoryFieldTrips          = "field_trips"
	CategoryClassroomGrants     = "classroom_grants"
	CategoryFundraisingCosts    = "fundraising_costs"
	CategoryScholarships        = "scholarships"
	CategoryOther               = "other"
)

type Category struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var Categories = []Category{
	{Name: "Supplies", Value: CategorySupplies},
	{Name: "Events", Value: CategoryEvents},
	{Name: "Teacher appreciation", Value: CategoryTeacherAppreciation},
	{Name: "Field trips", Value: CategoryFieldTrips},
	{Name: "Classroom grants", Value: CategoryClassroomGrants},
	{Name: "Fundraising costs", Value: CategoryFundraisingCosts},
	{Name: "Scholarships", Value: CategoryScholarships},
	{Name: "Other", Value: CategoryOther},
}

func IsValidCategory(cat string) bool {
	for _, c := range Categories {
		if c.Value == cat {
			return true
		}
	}
	return false
}

// CategoryName returns the display name of a category value.
func CategoryName(cat string) string {
	for _, c := range Categories {
		if c.Value == cat {
			return c.Name
		}
	}
	return cat
}

// InitValidators registers the expense validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return IsValidCategory(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

// Expense is money spent by the PTA.
type Expense struct {
	ID          string          `json:"id" db:"id"`
	SchoolID    string          `json:"school_id" db:"school_id"`
	Category    string          `json:"category" db:"category"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Vendor      string          `json:"vendor" db:"vendor"`
	Description string          `json:"description" db:"description"`
	IncurredOn  core.Date       `json:"incurred_on" db:"incurred_on"`
	ReceiptURL  string          `json:"receipt_url" db:"receipt_url"`
	ApprovedBy  null.String     `json:"approved_by" db:"approved_by"`
	RecordedBy  null.String     `json:"recorded_by" db:"recorded_by"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

type NewExpense struct {
	Category    string          `json:"category" validate:"required,expensecat"`
	Amount      decimal.Decimal `json:"amount" validate:"money"`
	Vendor      string          `json:"vendor" validate:"max=255"`
	Description string          `json:"description" validate:"required"`
	IncurredOn  core.Date       `json:"incurred_on"`
	ReceiptURL  string          `json:"receipt_url" validate:"omitempty,url"`
	ApprovedBy  null.String     `json:"approved_by" validate:"omitempty,uuid"`
}

// Validate cleans the expense; IncurredOn defaults to today.
func (ne *NewExpense) Validate(validate *validator.Validate) error {
	ne.Category = core.CleanString(ne.Category, true /* lower */)
	ne.Vendor = core.CleanString(ne.Vendor)
	ne.Description = core.CleanString(ne.Description)
	ne.ReceiptURL = core.CleanString(ne.ReceiptURL)
	ne.ApprovedBy = core.CleanNullString(ne.ApprovedBy)
	if ne.IncurredOn.IsZero() {
		ne.IncurredOn = core.DateOf(time.Now())
	}
	return validate.Struct(ne)
}

// UpdateExpense defines what may change on an Expense. Nil fields are kept; an empty ApprovedBy removes the approval.
type UpdateExpense struct {
	Category    *string          `json:"category" validate:"omitempty,expensecat"`
	Amount      *decimal.Decimal `json:"amount" validate:"omitempty,money"`
	Vendor      *string          `json:"vendor" validate:"omitempty,max=255"`
	Description *string          `json:"description"`
	IncurredOn  *core.Date       `json:"incurred_on"`
	ReceiptURL  *string          `json:"receipt_url" validate:"omitempty,url"`
	ApprovedBy  *string          `json:"approved_by" validate:"omitempty,nulluuid"`
}

func (ue *UpdateExpense) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ue.Vendor, ue.Description, ue.ReceiptURL, ue.ApprovedBy} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if ue.Category != nil {
		*ue.Category = core.CleanString(*ue.Category, true /* lower */)
	}
	if ue.Description != nil && *ue.Description == "" {
		ue.Description = nil
	}
	if ue.IncurredOn != nil && ue.IncurredOn.IsZero() {
		ue.IncurredOn = nil
	}
	return validate.Struct(ue)
}

func (ue *UpdateExpense) Apply(e Expense) Expense {
	if ue.Category != nil && *ue.Category != "" {
		e.Category = *ue.Category
	}
	if ue.Amount != nil {
		e.Amount = *ue.Amount
	}
	if ue.Vendor != nil {
		e.Vendor = *ue.Vendor
	}
	if ue.Description != nil {
		e.Description = *ue.Description
	}
	if ue.IncurredOn != nil {
		e.IncurredOn = *ue.IncurredOn
	}
	if ue.ReceiptURL != nil {
		e.ReceiptURL = *ue.ReceiptURL
	}
	if ue.ApprovedBy != nil {
		e.ApprovedBy = null.NewString(*ue.ApprovedBy, *ue.ApprovedBy != "")
	}
	return e
}

type QueryFilter struct {
	SchoolID     string
	Search       string    `query:"search"`
	Category     string    `query:"category"`
	IncurredFrom core.Date `query:"incurred_from"`
	IncurredTo   core.Date `query:"incurred_to"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
}

var (
	OrderingFields  = []string{"incurred_on", "amount", "category", "vendor", "created_at"}
	DefaultOrdering = core.DBOrdering{Field: "incurred_on", Ascending: false}
)

type (
	Repository interface {
		CreateExpense(ctx context.Context, e Expense) (Expense, error)
		GetExpense(ctx context.Context, schoolID, id string) (Expense, error)
		// QueryExpenses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Expense.Vendor or Expense.Description.
		QueryExpenses(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Expense, error)
		UpdateExpense(ctx context.Context, e Expense) (Expense, error)
		DeleteExpense(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, schoolID, recordedBy string, ne NewExpense) (Expense, error) {
	now := time.Now().UTC()
	return svc.repo.CreateExpense(ctx, Expense{
		SchoolID:    schoolID,
		Category:    ne.Category,
		Amount:      ne.Amount,
		Vendor:      ne.Vendor,
		Description: ne.Description,
		IncurredOn:  ne.IncurredOn,
		ReceiptURL:  ne.ReceiptURL,
		ApprovedBy:  ne.ApprovedBy,
		RecordedBy:  null.NewString(recordedBy, recordedBy != ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Get(ctx context.Context, schoolID, id string) (Expense, error) {
	return svc.repo.GetExpense(ctx, schoolID, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Expense, error) {
	ordering = core.CleanOrderings(ordering, OrderingFields, DefaultOrdering)
	return svc.repo.QueryExpenses(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, e Expense, ue UpdateExpense) (Expense, error) {
	e = ue.Apply(e)
	e.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateExpense(ctx, e)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteExpense(ctx, schoolID, id)
}
