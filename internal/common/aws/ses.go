// internal/common/aws/ses.go
package aws

import (
	"context"
	"errors"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

var ErrMissingRecipient = errors.New("missing recipient")

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESClient sends plain-text case notifications from a fixed sender address.
type SESClient struct {
	api  sesAPI
	from string
}

func NewSESClient(ctx context.Context, region, from string) (*SESClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{api: ses.NewFromConfig(cfg), from: from}, nil
}

// NewSESClientWithAPI is used by tests and by callers that share an SDK client.
func NewSESClientWithAPI(api sesAPI, from string) *SESClient {
	return &SESClient{api: api, from: from}
}

// SendEmail returns the SES message ID.
func (s *SESClient) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	if to == "" {
		return "", ErrMissingRecipient
	}
	out, err := s.api.SendEmail(ctx, &ses.SendEmailInput{
		Source:      awssdk.String(s.from),
		Destination: &types.Destination{ToAddresses: []string{to}},
		Message: &types.Message{
			Subject: &types.Content{Data: awssdk.String(subject), Charset: awssdk.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: awssdk.String(body), Charset: awssdk.String("UTF-8")},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ses send to %s: %w", to, err)
	}
	return awssdk.ToString(out.MessageId), nil
}
