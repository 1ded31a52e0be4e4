package payment

import (
	"context"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/pta/core"
)

var (
	ErrNotFound = core.NewNotFoundError("payment not found")

	categoryTag  = "paymentcat"
	categoryText = "invalid payment category"

	receiptTemplate = "payment_receipt"
)

// InitValidators registers the payment validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, func(fl validator.FieldLevel) bool {
		return IsValidCategory(fl.Field().String())
	})
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

type (
	Repository interface {
		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		GetPayment(ctx context.Context, schoolID, id string) (Payment, error)
		// QueryPayments applies AND operation on available QueryFilter fields.
		// PaidFrom and PaidTo are inclusive.
		QueryPayments(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Payment, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)
		DeletePayment(ctx context.Context, schoolID, id string) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}

	// Receipt holds what a payment receipt email needs besides the Payment itself.
	Receipt struct {
		SchoolName  string
		ParentName  string
		ParentEmail string
		StudentName string
	}

	receiptData struct {
		PaymentID   string
		SchoolName  string
		ParentName  string
		StudentName string
		Amount      string
		Category    string
		Method      string
		PaidOn      string
	}
)

func NewService(repo Repository, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) Create(ctx context.Context, schoolID, recordedBy string, np NewPayment) (Payment, error) {
	now := time.Now().UTC()
	return svc.repo.CreatePayment(ctx, Payment{
		SchoolID:   schoolID,
		ParentID:   np.ParentID,
		StudentID:  np.StudentID,
		Amount:     np.Amount,
		Category:   np.Category,
		Method:     np.Method,
		Status:     np.Status,
		Reference:  np.Reference,
		Notes:      np.Notes,
		PaidOn:     np.PaidOn,
		RecordedBy: null.NewString(recordedBy, recordedBy != ""),
		CreatedAt:  now,
		UpdatedAt:  now,
	})
}

func (svc *Service) Get(ctx context.Context, schoolID, id string) (Payment, error) {
	return svc.repo.GetPayment(ctx, schoolID, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Payment, error) {
	ordering = core.CleanOrderings(ordering, OrderingFields, DefaultOrdering)
	return svc.repo.QueryPayments(ctx, filter, ordering...)
}

func (svc *Service) Update(ctx context.Context, p Payment, up UpdatePayment) (Payment, error) {
	p = up.Apply(p)
	p.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdatePayment(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeletePayment(ctx, schoolID, id)
}

// SendReceipt emails a receipt for a completed payment. It is a no-op for other statuses or without an email.
func (svc *Service) SendReceipt(p Payment, rcpt Receipt) bool {
	if svc.mailSvc == nil || p.Status != StatusCompleted || rcpt.ParentEmail == "" {
		return false
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: rcpt.ParentName, Address: rcpt.ParentEmail}},
		Subject:      "Payment receipt",
		TemplateName: receiptTemplate,
		TemplateData: receiptData{
			PaymentID:   p.ID,
			SchoolName:  rcpt.SchoolName,
			ParentName:  rcpt.ParentName,
			StudentName: rcpt.StudentName,
			Amount:      p.Amount.StringFixed(2),
			Category:    CategoryName(p.Category),
			Method:      p.Method,
			PaidOn:      p.PaidOn.String(),
		},
	})
	return true
}
