package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/mmynk/familybudget/internal/apperr"
)

// sesAPI is the part of the SES client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends emails through Amazon SES. A sender without a from
// address is disabled and only logs what it would send.
type SESSender struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	logger     *slog.Logger
}

// Options configures NewSESSender.
type Options struct {
	Region     string
	FromEmail  string
	FromName   string
	AppBaseURL string
}

// NewSESSender loads the default AWS configuration and creates a sender.
func NewSESSender(ctx context.Context, opts Options, logger *slog.Logger) (*SESSender, error) {
	if opts.FromEmail == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &SESSender{appBaseURL: opts.AppBaseURL, logger: logger}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Info("Email service enabled", "from", opts.FromEmail, "region", opts.Region)
	return newSESSender(sesv2.NewFromConfig(cfg), opts, logger), nil
}

func newSESSender(client sesAPI, opts Options, logger *slog.Logger) *SESSender {
	return &SESSender{
		client:     client,
		fromEmail:  opts.FromEmail,
		fromName:   opts.FromName,
		appBaseURL: opts.AppBaseURL,
		logger:     logger,
	}
}

// IsEnabled returns whether emails are actually sent.
func (s *SESSender) IsEnabled() bool {
	return s.client != nil
}

// SendInvitation sends the invitation link to a new member.
func (s *SESSender) SendInvitation(ctx context.Context, inv Invitation) error {
	msg, err := invitationMessage(s.appBaseURL, inv)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// SendPasswordReset sends a password reset link.
func (s *SESSender) SendPasswordReset(ctx context.Context, to, toName, token string) error {
	msg, err := resetMessage(s.appBaseURL, to, toName, token)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

func (s *SESSender) send(ctx context.Context, msg message) error {
	if !s.IsEnabled() {
		s.logger.Info("Skipping email send (service disabled)", "to", msg.To, "subject", msg.Subject)
		return nil
	}

	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(msg.Subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(msg.HTML),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(msg.Text),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return apperr.External("ses send email", err)
	}

	s.logger.Info("Email sent", "to", msg.To, "message_id", aws.ToString(result.MessageId))
	return nil
}
