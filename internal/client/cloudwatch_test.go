package client_test

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/Nao-Mk2/access-log-top/internal/client"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// mockLogsAPI implements client.LogsAPI for testing.
type mockLogsAPI struct {
	responses []*cloudwatchlogs.FilterLogEventsOutput
	inputs    []*cloudwatchlogs.FilterLogEventsInput
	err       error
	call      int
}

func (m *mockLogsAPI) FilterLogEvents(ctx context.Context, params *cloudwatchlogs.FilterLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.FilterLogEventsOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.err != nil {
		return nil, m.err
	}
	if m.call < len(m.responses) {
		r := m.responses[m.call]
		m.call++
		return r, nil
	}
	// Default empty page if not enough responses provided
	m.call++
	return &cloudwatchlogs.FilterLogEventsOutput{}, nil
}

func TestEachMessage(t *testing.T) {
	tests := []struct {
		name      string
		group     string
		filter    string
		startMs   int64
		endMs     int64
		mock      *mockLogsAPI
		want      []string
		wantCalls int
		wantErr   bool
	}{
		{
			name:    "single page",
			group:   "/aws/alb/site",
			filter:  "",
			startMs: 0,
			endMs:   2000000000000,
			mock: &mockLogsAPI{responses: []*cloudwatchlogs.FilterLogEventsOutput{
				{Events: []types.FilteredLogEvent{
					{Message: aws.String("line 1")},
					{Message: aws.String("line 2")},
				}},
			}},
			want:      []string{"line 1", "line 2"},
			wantCalls: 1,
		},
		{
			name:    "paginates until token repeats",
			group:   "/aws/alb/site",
			filter:  "GET",
			startMs: 1000,
			endMs:   9999,
			mock: &mockLogsAPI{responses: []*cloudwatchlogs.FilterLogEventsOutput{
				{Events: []types.FilteredLogEvent{{Message: aws.String("a")}}, NextToken: aws.String("A")},
				{Events: []types.FilteredLogEvent{{Message: aws.String("b")}}, NextToken: aws.String("B")},
				// Same token as previous -> stop
				{Events: []types.FilteredLogEvent{{Message: aws.String("c")}}, NextToken: aws.String("B")},
			}},
			want:      []string{"a", "b", "c"},
			wantCalls: 3,
		},
		{
			name:    "propagates api error",
			group:   "group-x",
			mock:    &mockLogsAPI{err: errors.New("boom")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cwc := client.NewFromAPI(tt.mock)

			var got []string
			err := cwc.EachMessage(context.Background(), tt.group, tt.filter, tt.startMs, tt.endMs, func(msg string) error {
				got = append(got, msg)
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr = %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.mock.call != tt.wantCalls {
				t.Fatalf("FilterLogEvents calls = %d, want %d", tt.mock.call, tt.wantCalls)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("messages = %v, want %v", got, tt.want)
			}
			for i, in := range tt.mock.inputs {
				if aws.ToString(in.LogGroupName) != tt.group {
					t.Fatalf("input[%d] LogGroupName = %q, want %q", i, aws.ToString(in.LogGroupName), tt.group)
				}
				if aws.ToString(in.FilterPattern) != tt.filter {
					t.Fatalf("input[%d] FilterPattern = %q, want %q", i, aws.ToString(in.FilterPattern), tt.filter)
				}
				if tt.filter == "" && in.FilterPattern != nil {
					t.Fatalf("input[%d] FilterPattern should be unset", i)
				}
				if aws.ToInt64(in.StartTime) != tt.startMs || aws.ToInt64(in.EndTime) != tt.endMs {
					t.Fatalf("Start/End = (%d,%d), want (%d,%d)", aws.ToInt64(in.StartTime), aws.ToInt64(in.EndTime), tt.startMs, tt.endMs)
				}
			}
		})
	}
}

func TestEachMessageStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	mock := &mockLogsAPI{responses: []*cloudwatchlogs.FilterLogEventsOutput{
		{Events: []types.FilteredLogEvent{{Message: aws.String("a")}, {Message: aws.String("b")}}, NextToken: aws.String("A")},
	}}
	var n int
	err := client.NewFromAPI(mock).EachMessage(context.Background(), "g", "", 0, 1, func(string) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("error = %v, want %v", err, stop)
	}
	if n != 1 || mock.call != 1 {
		t.Fatalf("callback calls = %d, api calls = %d, want 1 and 1", n, mock.call)
	}
}

func TestNewCloudWatchOptions(t *testing.T) {
	tests := []struct {
		name    string
		options client.AuthOptions
		env     map[string]string // key -> value, value="" means unset
		wantLen int
	}{
		{
			name:    "no region or profile, no env",
			options: client.AuthOptions{},
			env:     map[string]string{"AWS_PROFILE": "", "AWS_ACCESS_KEY_ID": "", "AWS_SECRET_ACCESS_KEY": ""},
			wantLen: 0,
		},
		{
			name:    "with region",
			options: client.AuthOptions{Region: "us-east-1"},
			env:     map[string]string{"AWS_PROFILE": "", "AWS_ACCESS_KEY_ID": "", "AWS_SECRET_ACCESS_KEY": ""},
			wantLen: 1,
		},
		{
			name:    "with profile flag",
			options: client.AuthOptions{Profile: "my-profile"},
			env:     map[string]string{"AWS_PROFILE": "", "AWS_ACCESS_KEY_ID": "", "AWS_SECRET_ACCESS_KEY": ""},
			wantLen: 1,
		},
		{
			name:    "with AWS_PROFILE env",
			options: client.AuthOptions{},
			env:     map[string]string{"AWS_PROFILE": "env-profile"},
			wantLen: 1,
		},
		{
			name:    "with static creds",
			options: client.AuthOptions{},
			env:     map[string]string{"AWS_PROFILE": "", "AWS_ACCESS_KEY_ID": "key", "AWS_SECRET_ACCESS_KEY": "secret"},
			wantLen: 1,
		},
		{
			name:    "key without secret is ignored",
			options: client.AuthOptions{},
			env:     map[string]string{"AWS_PROFILE": "", "AWS_ACCESS_KEY_ID": "key", "AWS_SECRET_ACCESS_KEY": ""},
			wantLen: 0,
		},
		{
			name:    "profile overrides static creds",
			options: client.AuthOptions{Profile: "my-profile"},
			env:     map[string]string{"AWS_ACCESS_KEY_ID": "key", "AWS_SECRET_ACCESS_KEY": "secret"},
			wantLen: 1,
		},
		{
			name:    "with region and static creds",
			options: client.AuthOptions{Region: "us-west-2"},
			env:     map[string]string{"AWS_PROFILE": "", "AWS_ACCESS_KEY_ID": "key", "AWS_SECRET_ACCESS_KEY": "secret"},
			wantLen: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				old, had := os.LookupEnv(k)
				if v == "" {
					os.Unsetenv(k)
				} else {
					os.Setenv(k, v)
				}
				defer func(k, old string, had bool) {
					if had {
						os.Setenv(k, old)
					} else {
						os.Unsetenv(k)
					}
				}(k, old, had)
			}

			opts := client.NewCloudWatchOptions(tt.options)
			if len(opts) != tt.wantLen {
				t.Errorf("NewCloudWatchOptions() returned %d options, want %d", len(opts), tt.wantLen)
			}
		})
	}
}
