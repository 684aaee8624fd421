package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/mmynk/familybudget/internal/apperr"
)

type fakeSES struct {
	inputs []*sesv2.SendEmailInput
	err    error
}

func (f *fakeSES) SendEmail(_ context.Context, params *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSESSenderInvitation(t *testing.T) {
	client := &fakeSES{}
	sender := newSESSender(client, Options{
		FromEmail:  "noreply@example.com",
		FromName:   "Family Budget",
		AppBaseURL: "https://budget.example.com/",
	}, discardLogger())

	err := sender.SendInvitation(context.Background(), Invitation{
		To:          "bob@example.com",
		ToName:      "Bob",
		InviterName: "Alice",
		FamilyName:  "Smith",
		Token:       "tok+en",
	})
	if err != nil {
		t.Fatalf("SendInvitation failed: %v", err)
	}
	if len(client.inputs) != 1 {
		t.Fatalf("expected one email, got %d", len(client.inputs))
	}

	in := client.inputs[0]
	if got := aws.ToString(in.FromEmailAddress); got != "Family Budget <noreply@example.com>" {
		t.Errorf("from = %q", got)
	}
	if in.Destination.ToAddresses[0] != "bob@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	text := aws.ToString(in.Content.Simple.Body.Text.Data)
	if !strings.Contains(text, "https://budget.example.com/accept-invite?token=tok%2Ben") {
		t.Errorf("text body missing accept link: %s", text)
	}
	if subject := aws.ToString(in.Content.Simple.Subject.Data); !strings.Contains(subject, "Alice") {
		t.Errorf("subject = %q", subject)
	}
}

func TestSESSenderEscapesMemberNames(t *testing.T) {
	client := &fakeSES{}
	sender := newSESSender(client, Options{
		FromEmail:  "noreply@example.com",
		AppBaseURL: "https://budget.example.com",
	}, discardLogger())

	err := sender.SendInvitation(context.Background(), Invitation{
		To:          "bob@example.com",
		ToName:      "Bob & Co",
		InviterName: `<a href="https://evil.example/login">Alice</a>`,
		FamilyName:  "Smith<script>x()</script>",
		Token:       "tok+en",
	})
	if err != nil {
		t.Fatalf("SendInvitation failed: %v", err)
	}
	if err := sender.SendPasswordReset(context.Background(), "bob@example.com", "<b>Bob</b>", "t"); err != nil {
		t.Fatalf("SendPasswordReset failed: %v", err)
	}
	if len(client.inputs) != 2 {
		t.Fatalf("expected two emails, got %d", len(client.inputs))
	}

	invite := aws.ToString(client.inputs[0].Content.Simple.Body.Html.Data)
	for _, raw := range []string{`<a href="https://evil.example`, "<script>", "Bob & Co"} {
		if strings.Contains(invite, raw) {
			t.Errorf("invitation HTML contains unescaped %q", raw)
		}
	}
	for _, escaped := range []string{"&lt;script&gt;", "Bob &amp; Co", `href="https://budget.example.com/accept-invite?token=tok%2Ben"`} {
		if !strings.Contains(invite, escaped) {
			t.Errorf("invitation HTML missing %q:\n%s", escaped, invite)
		}
	}

	reset := aws.ToString(client.inputs[1].Content.Simple.Body.Html.Data)
	if strings.Contains(reset, "<b>Bob</b>") || !strings.Contains(reset, "&lt;b&gt;Bob&lt;/b&gt;") {
		t.Errorf("reset HTML does not escape the name:\n%s", reset)
	}
}

func TestSESSenderFailureIsExternal(t *testing.T) {
	client := &fakeSES{err: errors.New("throttled")}
	sender := newSESSender(client, Options{FromEmail: "noreply@example.com"}, discardLogger())

	err := sender.SendPasswordReset(context.Background(), "a@example.com", "A", "t")
	if !errors.Is(err, apperr.ErrExternalService) {
		t.Errorf("expected external service error, got %v", err)
	}
}

func TestDisabledSender(t *testing.T) {
	sender, err := NewSESSender(context.Background(), Options{AppBaseURL: "http://localhost"}, discardLogger())
	if err != nil {
		t.Fatalf("NewSESSender failed: %v", err)
	}
	if sender.IsEnabled() {
		t.Fatal("sender without from address should be disabled")
	}
	if err := sender.SendPasswordReset(context.Background(), "a@example.com", "A", "t"); err != nil {
		t.Errorf("disabled sender should not fail: %v", err)
	}
}
