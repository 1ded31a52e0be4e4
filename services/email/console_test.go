package emailsvc_test

import (
	"bytes"
	"net/mail"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/pta/assets"
	"github.com/trezcool/pta/core"
	"github.com/trezcool/pta/core/payment"
	emailsvc "github.com/trezcool/pta/services/email"
	logsvc "github.com/trezcool/pta/services/logger"
)

func newMock(t *testing.T) *emailsvc.ConsoleServiceMock {
	conf := core.NewTestConfig()
	tmpls, err := core.ParseEmailTemplates(assets.FS, assets.EmailTemplatesDir, conf)
	require.NoError(t, err)
	var out bytes.Buffer
	logger := logsvc.NewRollbarLogger(logsvc.NewZerolog(&out, conf), conf)
	return emailsvc.NewConsoleServiceMock(tmpls, logger, conf)
}

func TestConsoleServiceMock_PaymentReceipt(t *testing.T) {
	mailSvc := newMock(t)
	paySvc := payment.NewService(nil, mailSvc)

	p := payment.Payment{
		ID:       "pay-1",
		Amount:   decimal.RequireFromString("12.5"),
		Category: payment.CategoryFieldTrip,
		Method:   payment.MethodCash,
		Status:   payment.StatusCompleted,
		PaidOn:   core.NewDate(2021, time.May, 3),
	}
	sent := paySvc.SendReceipt(p, payment.Receipt{
		SchoolName:  "Hill Valley High",
		ParentName:  "Lorraine McFly",
		ParentEmail: "lorraine@example.com",
		StudentName: "Marty McFly",
	})
	require.True(t, sent)

	msgs := mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	msg := msgs[0]
	assert.Equal(t, []mail.Address{{Name: "Lorraine McFly", Address: "lorraine@example.com"}}, msg.To)
	for _, content := range []string{msg.TextContent, msg.HTMLContent} {
		assert.Contains(t, content, "12.50")
		assert.Contains(t, content, "Field trip")
		assert.Contains(t, content, "2021-05-03")
		assert.Contains(t, content, "Marty McFly")
		assert.Contains(t, content, "Hill Valley High")
	}

	mailSvc.Reset()
	assert.Empty(t, mailSvc.SentMessages())
}

func TestConsoleServiceMock_SkipsEmptyMessages(t *testing.T) {
	mailSvc := newMock(t)
	mailSvc.SendMessages(
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hi"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, Subject: "no content"},
		&core.EmailMessage{To: []mail.Address{{Address: "a@b.c"}}, Subject: "ok", BodyStr: "hi"},
	)

	msgs := mailSvc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "ok", msgs[0].Subject)
	assert.Equal(t, "hi", msgs[0].TextContent)
}
