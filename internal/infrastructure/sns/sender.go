package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/go-magic-auth/internal/config"
)

// CodeMessage is the payload published for each issued code. A subscriber
// (mail worker, SMS bridge) renders and delivers it.
type CodeMessage struct {
	Target string `json:"target"`
	Code   string `json:"code"`
	Link   string `json:"link"`
}

type publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Sender publishes verification codes to an SNS topic.
type Sender struct {
	client   publisher
	topicARN string
}

func NewSender(cfg *config.Config) (*Sender, error) {
	if cfg.SNSTopicARN == "" {
		return nil, fmt.Errorf("SNS_TOPIC_ARN is required for the sns dispatcher")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.SNSRegion)}
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, err
	}
	var clientOpts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		clientOpts = append(clientOpts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &Sender{client: sns.NewFromConfig(awsCfg, clientOpts...), topicARN: cfg.SNSTopicARN}, nil
}

func (s *Sender) SendCode(ctx context.Context, target, code, link string) error {
	body, err := json.Marshal(CodeMessage{Target: target, Code: code, Link: link})
	if err != nil {
		return fmt.Errorf("marshal code message: %w", err)
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"kind": {DataType: aws.String("String"), StringValue: aws.String("verification-code")},
		},
	})
	if err != nil {
		return fmt.Errorf("publish code message: %w", err)
	}
	return nil
}
