// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSClient sends transactional SMS alerts.
type SNSClient struct {
	api      snsAPI
	senderID string
}

func NewSNSClient(ctx context.Context, region, senderID string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SNSClient{api: sns.NewFromConfig(cfg), senderID: senderID}, nil
}

func NewSNSClientWithAPI(api snsAPI, senderID string) *SNSClient {
	return &SNSClient{api: api, senderID: senderID}
}

// SendSMS publishes directly to a phone number and returns the message ID.
func (s *SNSClient) SendSMS(ctx context.Context, phone, message string) (string, error) {
	if phone == "" {
		return "", ErrMissingRecipient
	}
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: awssdk.String("String"), StringValue: awssdk.String("Transactional")},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{
			DataType:    awssdk.String("String"),
			StringValue: awssdk.String(s.senderID),
		}
	}
	out, err := s.api.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       awssdk.String(phone),
		Message:           awssdk.String(message),
		MessageAttributes: attrs,
	})
	if err != nil {
		return "", fmt.Errorf("sns publish to %s: %w", phone, err)
	}
	return awssdk.ToString(out.MessageId), nil
}
