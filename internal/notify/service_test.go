package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boostxlresults/intellisend/internal/agent"
)

type fakeEmailSender struct {
	sent []EmailMessage
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMSSender struct {
	sent map[string]string
	err  error
}

func (f *fakeSMSSender) SendSMS(_ context.Context, to, body string) error {
	if f.err != nil {
		return f.err
	}
	if f.sent == nil {
		f.sent = make(map[string]string)
	}
	f.sent[to] = body
	return nil
}

type fakeSettingsStore struct {
	settings *Settings
	err      error
}

func (f *fakeSettingsStore) Get(_ context.Context, _ string) (*Settings, error) {
	return f.settings, f.err
}

func testRecord() agent.HandoffRecord {
	return agent.HandoffRecord{
		TenantID:           "org-1",
		ConversationID:     "sms:org-1:+15550001111",
		ContactID:          "contact-9",
		ContactName:        "Jordan Reyes",
		Phone:              "+15550001111",
		Reason:             agent.HandoffReasonCallRequested,
		LastInboundMessage: "just call me please",
		Summary:            "Customer: Jordan Reyes\nPhone: +15550001111",
	}
}

func TestCreateHandoffRecordSendsEmailAndSMS(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	store := &fakeSettingsStore{settings: &Settings{
		BrandName:       "BoostXL Plumbing",
		EmailEnabled:    true,
		EmailRecipients: []string{"csr@example.com", "lead@example.com"},
		SMSEnabled:      true,
		SMSRecipients:   []string{"+15559990000"},
	}}
	svc := NewService(email, sms, store, nil)

	id, err := svc.CreateHandoffRecord(context.Background(), testRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.Len(t, email.sent, 2)
	assert.Equal(t, "csr@example.com", email.sent[0].To)
	assert.Contains(t, email.sent[0].Subject, "Jordan Reyes")
	assert.Contains(t, email.sent[0].Subject, "customer asked for a call")
	assert.Contains(t, email.sent[0].Body, id)
	assert.Contains(t, email.sent[0].Body, "BoostXL Plumbing")
	assert.Contains(t, email.sent[0].HTML, "+15550001111")

	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent["+15559990000"], "Jordan Reyes")
	assert.Contains(t, sms.sent["+15559990000"], "just call me please")
}

func TestCreateHandoffRecordFallsBackToPhoneName(t *testing.T) {
	email := &fakeEmailSender{}
	store := &fakeSettingsStore{settings: &Settings{
		EmailEnabled:    true,
		EmailRecipients: []string{"csr@example.com"},
	}}
	svc := NewService(email, nil, store, nil)

	rec := testRecord()
	rec.ContactName = ""

	_, err := svc.CreateHandoffRecord(context.Background(), rec)
	require.NoError(t, err)
	require.Len(t, email.sent, 1)
	assert.Contains(t, email.sent[0].Subject, "+15550001111")
}

func TestCreateHandoffRecordPartialFailureStillReturnsID(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("smtp down")}
	sms := &fakeSMSSender{}
	store := &fakeSettingsStore{settings: &Settings{
		EmailEnabled:    true,
		EmailRecipients: []string{"csr@example.com"},
		SMSEnabled:      true,
		SMSRecipients:   []string{"+15559990000"},
	}}
	svc := NewService(email, sms, store, nil)

	id, err := svc.CreateHandoffRecord(context.Background(), testRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Len(t, sms.sent, 1)
}

func TestCreateHandoffRecordAllChannelsFailedReturnsError(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("smtp down")}
	sms := &fakeSMSSender{err: errors.New("carrier down")}
	store := &fakeSettingsStore{settings: &Settings{
		EmailEnabled:    true,
		EmailRecipients: []string{"csr@example.com"},
		SMSEnabled:      true,
		SMSRecipients:   []string{"+15559990000"},
	}}
	svc := NewService(email, sms, store, nil)

	id, err := svc.CreateHandoffRecord(context.Background(), testRecord())
	require.Error(t, err)
	assert.Empty(t, id)
}

func TestCreateHandoffRecordNoChannelsStillReturnsID(t *testing.T) {
	store := &fakeSettingsStore{settings: &Settings{}}
	svc := NewService(nil, nil, store, nil)

	id, err := svc.CreateHandoffRecord(context.Background(), testRecord())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestCreateHandoffRecordSettingsErrorPropagates(t *testing.T) {
	store := &fakeSettingsStore{err: errors.New("db down")}
	svc := NewService(&fakeEmailSender{}, nil, store, nil)

	_, err := svc.CreateHandoffRecord(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "get settings")
}

func TestReasonLabels(t *testing.T) {
	assert.Equal(t, "conversation going in circles", reasonLabel(agent.HandoffReasonLoopGuard))
	assert.Equal(t, "no open appointment slots", reasonLabel(agent.HandoffReasonNoAvailability))
	assert.Equal(t, "custom_reason", reasonLabel("custom_reason"))
}

func TestStaticSettingsReturnsCopy(t *testing.T) {
	store := NewStaticSettings(Settings{BrandName: "Acme", EmailEnabled: true})
	got, err := store.Get(context.Background(), "any-org")
	require.NoError(t, err)

	got.BrandName = "changed"
	again, err := store.Get(context.Background(), "any-org")
	require.NoError(t, err)
	assert.Equal(t, "Acme", again.BrandName)
}

func TestSimpleSMSSenderUsesSendFunc(t *testing.T) {
	var gotTo, gotFrom, gotBody string
	sender := NewSimpleSMSSender("+15550008888", func(_ context.Context, to, from, body string) error {
		gotTo, gotFrom, gotBody = to, from, body
		return nil
	}, nil)

	require.NoError(t, sender.SendSMS(context.Background(), "+15559990000", "hello"))
	assert.Equal(t, "+15559990000", gotTo)
	assert.Equal(t, "+15550008888", gotFrom)
	assert.Equal(t, "hello", gotBody)
}

func TestSimpleSMSSenderWithoutFuncIsNoOp(t *testing.T) {
	sender := NewSimpleSMSSender("", nil, nil)
	assert.NoError(t, sender.SendSMS(context.Background(), "+15559990000", "hello"))
}
