package payment

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
)

// Categories
const (
	CategoryMembershipDues = "membership_dues"
	CategoryDonation       = "donation"
	CategoryFundraiser     = "fundraiser"
	CategoryFieldTrip      = "field_trip"
	CategoryEventTicket    = "event_ticket"
	CategoryMerchandise    = "merchandise"
	CategoryOther          = "other"
)

// Methods
const (
	MethodCash         = "cash"
	MethodCheck        = "check"
	MethodCard         = "card"
	MethodBankTransfer = "bank_transfer"
	MethodOnline       = "online"
)

// Statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusRefunded  = "refunded"
)

type Category struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

var (
	Categories = []Category{
		{Name: "Membership dues", Value: CategoryMembershipDues},
		{Name: "Donation", Value: CategoryDonation},
		{Name: "Fundraiser", Value: CategoryFundraiser},
		{Name: "Field trip", Value: CategoryFieldTrip},
		{Name: "Event ticket", Value: CategoryEventTicket},
		{Name: "Merchandise", Value: CategoryMerchandise},
		{Name: "Other", Value: CategoryOther},
	}
	Methods  = []string{MethodCash, MethodCheck, MethodCard, MethodBankTransfer, MethodOnline}
	Statuses = []string{StatusPending, StatusCompleted, StatusRefunded}
)

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

// Payment is money received from a parent, optionally on behalf of one of their students.
type Payment struct {
	ID         string          `json:"id" db:"id"`
	SchoolID   string          `json:"school_id" db:"school_id"`
	ParentID   string          `json:"parent_id" db:"parent_id"`
	StudentID  null.String     `json:"student_id" db:"student_id"`
	Amount     decimal.Decimal `json:"amount" db:"amount"`
	Category   string          `json:"category" db:"category"`
	Method     string          `json:"method" db:"method"`
	Status     string          `json:"status" db:"status"`
	Reference  string          `json:"reference" db:"reference"`
	Notes      string          `json:"notes" db:"notes"`
	PaidOn     core.Date       `json:"paid_on" db:"paid_on"`
	RecordedBy null.String     `json:"recorded_by" db:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

type NewPayment struct {
	ParentID  string          `json:"parent_id" validate:"required,uuid"`
	StudentID null.String     `json:"student_id" validate:"omitempty,uuid"`
	Amount    decimal.Decimal `json:"amount" validate:"money"`
	Category  string          `json:"category" validate:"required,paymentcat"`
	Method    string          `json:"method" validate:"required,oneof=cash check card bank_transfer online"`
	Status    string          `json:"status" validate:"omitempty,oneof=pending completed refunded"`
	Reference string          `json:"reference" validate:"max=255"`
	Notes     string          `json:"notes"`
	PaidOn    core.Date       `json:"paid_on"`
}

// Validate cleans the payment; Status defaults to completed and PaidOn to today.
func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.ParentID = core.CleanString(np.ParentID)
	np.StudentID = core.CleanNullString(np.StudentID)
	np.Category = core.CleanString(np.Category, true /* lower */)
	np.Method = core.CleanString(np.Method, true /* lower */)
	np.Status = core.CleanString(np.Status, true /* lower */)
	np.Reference = core.CleanString(np.Reference)
	np.Notes = core.CleanString(np.Notes)
	if np.Status == "" {
		np.Status = StatusCompleted
	}
	if np.PaidOn.IsZero() {
		np.PaidOn = core.DateOf(time.Now())
	}
	return validate.Struct(np)
}

// UpdatePayment defines what may change on a Payment. Nil fields are kept; an empty StudentID removes the link.
type UpdatePayment struct {
	StudentID *string          `json:"student_id" validate:"omitempty,nulluuid"`
	Amount    *decimal.Decimal `json:"amount" validate:"omitempty,money"`
	Category  *string          `json:"category" validate:"omitempty,paymentcat"`
	Method    *string          `json:"method" validate:"omitempty,oneof=cash check card bank_transfer online"`
	Status    *string          `json:"status" validate:"omitempty,oneof=pending completed refunded"`
	Reference *string          `json:"reference" validate:"omitempty,max=255"`
	Notes     *string          `json:"notes"`
	PaidOn    *core.Date       `json:"paid_on"`
}

func (up *UpdatePayment) Validate(validate *validator.Validate) error {
	for _, s := range []*string{up.StudentID, up.Reference, up.Notes} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	for _, s := range []*string{up.Category, up.Method, up.Status} {
		if s != nil {
			*s = core.CleanString(*s, true /* lower */)
		}
	}
	if up.PaidOn != nil && up.PaidOn.IsZero() {
		up.PaidOn = nil
	}
	return validate.Struct(up)
}

func (up *UpdatePayment) Apply(p Payment) Payment {
	if up.StudentID != nil {
		p.StudentID = null.NewString(*up.StudentID, *up.StudentID != "")
	}
	if up.Amount != nil {
		p.Amount = *up.Amount
	}
	if up.Category != nil && *up.Category != "" {
		p.Category = *up.Category
	}
	if up.Method != nil && *up.Method != "" {
		p.Method = *up.Method
	}
	if up.Status != nil && *up.Status != "" {
		p.Status = *up.Status
	}
	if up.Reference != nil {
		p.Reference = *up.Reference
	}
	if up.Notes != nil {
		p.Notes = *up.Notes
	}
	if up.PaidOn != nil {
		p.PaidOn = *up.PaidOn
	}
	return p
}

type QueryFilter struct {
	SchoolID  string
	ParentID  string    `query:"parent_id" validate:"omitempty,uuid"`
	StudentID string    `query:"student_id" validate:"omitempty,uuid"`
	Category  string    `query:"category"`
	Method    string    `query:"method"`
	Status    string    `query:"status"`
	PaidFrom  core.Date `query:"paid_from"`
	PaidTo    core.Date `query:"paid_to"`
}

func (qf *QueryFilter) Clean() {
	qf.ParentID = core.CleanString(qf.ParentID)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Category = core.CleanString(qf.Category, true /* lower */)
	qf.Method = core.CleanString(qf.Method, true /* lower */)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

var (
	OrderingFields  = []string{"paid_on", "amount", "category", "status", "created_at"}
	DefaultOrdering = core.DBOrdering{Field: "paid_on", Ascending: false}
)
