package user

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"net/mail"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/pta/core"
)

var (
	resetSalt     = []byte("pta.core.user.password_reset")
	resetTemplate = "password_reset"
	resetPath     = "/password-reset"
	tsEncoding    = base32.StdEncoding.WithPadding(base32.NoPadding)

	// errors
	ErrInvalidResetLink = errors.New("invalid or expired reset link")
)

// ResetPassword is what a user sends back from a password reset link.
type ResetPassword struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// ResetEmailData feeds the password reset email template.
type ResetEmailData struct {
	Name      string
	URL       string
	ValidDays int
}

// PasswordReset issues and redeems signed password reset links.
// A link is valid for a whole number of days and stops working once the password or last login changes.
type PasswordReset struct {
	svc      *Service
	mailSvc  core.EmailService
	key      []byte
	validFor int // days
	baseURL  string
	now      func() time.Time
}

func NewPasswordReset(svc *Service, mailSvc core.EmailService, conf *core.Config) *PasswordReset {
	key := sha256.Sum256(append(append([]byte{}, resetSalt...), conf.SecretKey...))
	return &PasswordReset{
		svc:      svc,
		mailSvc:  mailSvc,
		key:      key[:],
		validFor: int(conf.PasswordResetTimeoutDelta / (24 * time.Hour)),
		baseURL:  strings.TrimRight(conf.FrontendBaseURL, "/") + resetPath,
		now:      time.Now,
	}
}

// Request emails a reset link to the active user owning `email`; any other address gives ErrNotFound.
func (pr *PasswordReset) Request(ctx context.Context, email string) error {
	usr, err := pr.svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}

	q := url.Values{}
	q.Set("uid", EncodeUID(usr))
	q.Set("token", pr.MakeToken(usr))
	pr.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: resetTemplate,
		TemplateData: ResetEmailData{
			Name:      usr.Name,
			URL:       pr.baseURL + "?" + q.Encode(),
			ValidDays: pr.validFor,
		},
	})
	return nil
}

// Confirm sets the new password of the user designated by a valid reset link.
func (pr *PasswordReset) Confirm(ctx context.Context, rp ResetPassword, validate *validator.Validate) (User, error) {
	rp.UID = core.CleanString(rp.UID)
	rp.Token = core.CleanString(rp.Token)
	if err := validate.Struct(rp); err != nil {
		return User{}, err
	}

	invalid := core.NewValidationError(ErrInvalidResetLink, core.FieldError{Field: "token", Error: ErrInvalidResetLink.Error()})
	id, err := DecodeUID(rp.UID)
	if err != nil {
		return User{}, invalid
	}
	usr, err := pr.svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, invalid
		}
		return User{}, err
	}
	if !usr.IsActive || !pr.VerifyToken(usr, rp.Token) {
		return User{}, invalid
	}

	// password policy, against the user's own attributes
	if err := validate.Struct(UpdateUser{
		Name:            usr.Name,
		Email:           usr.Email,
		Password:        rp.Password,
		PasswordConfirm: rp.PasswordConfirm,
	}); err != nil {
		return User{}, err
	}
	return pr.svc.SetPassword(ctx, usr, rp.Password)
}

// EncodeUID hides the user ID in reset links.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func DecodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// MakeToken signs a reset token for usr, stamped with the current day.
func (pr *PasswordReset) MakeToken(usr User) string {
	return pr.tokenAt(usr, daysSince2001(pr.now()))
}

// VerifyToken reports whether token was made for usr, as it is now, and has not expired.
func (pr *PasswordReset) VerifyToken(usr User, token string) bool {
	tsPart, _, ok := strings.Cut(token, "-")
	if !ok {
		return false
	}
	raw, err := tsEncoding.DecodeString(tsPart)
	if err != nil {
		return false
	}
	day, err := strconv.Atoi(string(raw))
	if err != nil {
		return false
	}
	if subtle.ConstantTimeCompare([]byte(pr.tokenAt(usr, day)), []byte(token)) == 0 {
		return false
	}
	age := daysSince2001(pr.now()) - day
	return age >= 0 && age <= pr.validFor
}

func (pr *PasswordReset) tokenAt(usr User, day int) string {
	var val bytes.Buffer
	val.WriteString(usr.ID)
	val.Write(usr.PasswordHash)
	if usr.LastLogin.Valid {
		val.WriteString(usr.LastLogin.Time.UTC().Format(time.RFC3339Nano))
	}
	val.WriteString(strconv.Itoa(day))

	h := hmac.New(sha256.New, pr.key)
	h.Write(val.Bytes())
	return tsEncoding.EncodeToString([]byte(strconv.Itoa(day))) + "-" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func daysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(ref) / (24 * time.Hour))
}
