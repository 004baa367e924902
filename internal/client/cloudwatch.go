package client

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// LogsAPI is the subset of the CloudWatch Logs API we use.
type LogsAPI interface {
	FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error)
}

// AuthOptions selects the region and shared config profile.
type AuthOptions struct {
	Region  string
	Profile string
}

// CloudWatchClient streams log event messages out of CloudWatch Logs groups.
type CloudWatchClient struct {
	client LogsAPI
}

// NewFromAPI wraps an existing LogsAPI implementation.
func NewFromAPI(api LogsAPI) *CloudWatchClient {
	return &CloudWatchClient{client: api}
}

// NewCloudWatchOptions builds config load options. A profile from the flag
// or AWS_PROFILE wins over static credentials in AWS_ACCESS_KEY_ID and
// AWS_SECRET_ACCESS_KEY; with neither, the SDK default chain applies.
func NewCloudWatchOptions(o AuthOptions) []func(*config.LoadOptions) error {
	var opts []func(*config.LoadOptions) error
	if o.Region != "" {
		opts = append(opts, config.WithRegion(o.Region))
	}
	profile := o.Profile
	if profile == "" {
		profile = os.Getenv("AWS_PROFILE")
	}
	if profile != "" {
		return append(opts, config.WithSharedConfigProfile(profile))
	}
	key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
	if key != "" && secret != "" {
		provider := credentials.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN"))
		opts = append(opts, config.WithCredentialsProvider(provider))
	}
	return opts
}

// NewCloudWatchClient loads AWS configuration with the given options and
// returns a client.
func NewCloudWatchClient(ctx context.Context, opts ...func(*config.LoadOptions) error) (*CloudWatchClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewFromAPI(cloudwatchlogs.NewFromConfig(cfg)), nil
}

// EachMessage pages through the events of group between startMs and endMs
// (epoch milliseconds) and calls fn with every message in order. An empty
// filterPattern returns every event. Paging stops when the API repeats a
// token or fn returns an error.
func (c *CloudWatchClient) EachMessage(ctx context.Context, group, filterPattern string, startMs, endMs int64, fn func(string) error) error {
	var next *string
	for {
		in := &cloudwatchlogs.FilterLogEventsInput{
			LogGroupName: aws.String(group),
			StartTime:    aws.Int64(startMs),
			EndTime:      aws.Int64(endMs),
			NextToken:    next,
		}
		if filterPattern != "" {
			in.FilterPattern = aws.String(filterPattern)
		}
		out, err := c.client.FilterLogEvents(ctx, in)
		if err != nil {
			return fmt.Errorf("filter log events in %s: %w", group, err)
		}
		for _, e := range out.Events {
			if err := fn(aws.ToString(e.Message)); err != nil {
				return err
			}
		}
		if out.NextToken == nil || (next != nil && aws.ToString(out.NextToken) == aws.ToString(next)) {
			return nil
		}
		next = out.NextToken
	}
}
