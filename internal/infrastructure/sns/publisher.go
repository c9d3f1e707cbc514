package sns

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type publishAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher posts operator-facing messages to a single SNS topic.
type Publisher struct {
	client   publishAPI
	topicARN string
}

// NewPublisher returns a Publisher for topicARN. endpointURL overrides the SNS
// endpoint when running against LocalStack.
func NewPublisher(awsCfg aws.Config, endpointURL, topicARN string) (*Publisher, error) {
	if topicARN == "" {
		return nil, errors.New("sns: topic ARN is required")
	}
	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if endpointURL != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
	})
	return &Publisher{client: client, topicARN: topicARN}, nil
}

func (p *Publisher) Publish(ctx context.Context, subject, message string) error {
	_, err := p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
