// Package bedrock adapts the AWS Bedrock Converse API to chat.Client.
package bedrock

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go"
	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/errs"
)

// converser is the part of *bedrockruntime.Client the adapter uses.
type converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Client implements chat.Client over Bedrock Converse. Streaming is not
// offered.
type Client struct {
	model string
	api   converser
}

// New loads the default AWS credential chain for region and returns a client.
func New(ctx context.Context, model, region string) (*Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, chat.Fail(chat.ProviderAWSBedrock, model, err)
	}
	return &Client{model: model, api: bedrockruntime.NewFromConfig(cfg)}, nil
}

func newWithConverser(model string, api converser) *Client {
	return &Client{model: model, api: api}
}

// --- chat.Client implementation ---

func (c *Client) Chat(ctx context.Context, msgs []chat.Message) (*chat.Response, error) {
	input, err := c.converseInput(msgs)
	if err != nil {
		return nil, err
	}

	out, err := c.api.Converse(ctx, input)
	if err != nil {
		return nil, chat.Fail(chat.ProviderAWSBedrock, c.model, apiReason(err))
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, chat.Fail(chat.ProviderAWSBedrock, c.model, errors.New("response contained no message"))
	}

	var sb strings.Builder
	for _, block := range msg.Value.Content {
		if text, ok := block.(*types.ContentBlockMemberText); ok {
			sb.WriteString(text.Value)
		}
	}

	resp := &chat.Response{Message: chat.Assistant(sb.String()), Model: c.model}
	if u := out.Usage; u != nil {
		resp.Usage = chat.Usage{
			PromptTokens:     int(aws.ToInt32(u.InputTokens)),
			CompletionTokens: int(aws.ToInt32(u.OutputTokens)),
		}
	}
	return resp, nil
}

func (c *Client) Stream(context.Context, []chat.Message, func(string) error) error {
	return chat.Unsupported(chat.ProviderAWSBedrock, "streaming")
}

func (c *Client) Capabilities() chat.Capabilities {
	return chat.Capabilities{SystemRole: true, Streaming: false}
}

func (c *Client) Close() error {
	return chat.Unsupported(chat.ProviderAWSBedrock, "close")
}

// converseInput maps messages to Converse shape. System messages become
// system blocks; consecutive turns of one role are merged and leading
// assistant turns dropped, because Converse wants alternating turns that
// start with the user.
func (c *Client) converseInput(msgs []chat.Message) (*bedrockruntime.ConverseInput, error) {
	input := &bedrockruntime.ConverseInput{ModelId: aws.String(c.model)}

	for _, m := range msgs {
		if m.Role == chat.RoleSystem {
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: m.Content})
			continue
		}

		role := types.ConversationRoleUser
		if m.Role == chat.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		if len(input.Messages) == 0 && role == types.ConversationRoleAssistant {
			continue
		}

		block := &types.ContentBlockMemberText{Value: m.Content}
		if n := len(input.Messages); n > 0 && input.Messages[n-1].Role == role {
			input.Messages[n-1].Content = append(input.Messages[n-1].Content, block)
			continue
		}
		input.Messages = append(input.Messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{block},
		})
	}

	if len(input.Messages) == 0 {
		return nil, errs.New(errs.ErrKindInvalidInput, "Bedrock conversation needs at least one user message")
	}
	return input, nil
}

// apiError keeps the service's own code and message as the failure reason.
type apiError struct {
	code    string
	message string
	err     error
}

func (e *apiError) Error() string { return e.code + ": " + e.message }
func (e *apiError) Unwrap() error { return e.err }

func apiReason(err error) error {
	var ae smithy.APIError
	if errors.As(err, &ae) {
		return &apiError{code: ae.ErrorCode(), message: ae.ErrorMessage(), err: err}
	}
	return err
}
