package aws

import (
	"context"
	"strconv"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSClient publishes dashboard events.
type SNSClient struct {
	client *sns.Client
}

func NewSNSClient(ctx context.Context, region string) (*SNSClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &SNSClient{client: sns.NewFromConfig(cfg)}, nil
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input)
}

// EventInput builds a publish request tagged with the event name and client id.
func EventInput(topicARN, event string, clientID int, message string) *sns.PublishInput {
	return &sns.PublishInput{
		TopicArn: awssdk.String(topicARN),
		Subject:  awssdk.String(event),
		Message:  awssdk.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(event),
			},
			"clientId": {
				DataType:    awssdk.String("Number"),
				StringValue: awssdk.String(strconv.Itoa(clientID)),
			},
		},
	}
}
