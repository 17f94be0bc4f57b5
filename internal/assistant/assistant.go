package assistant

import (
	"context"
	"strings"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/errs"
	"github.com/koustreak/dbchat/internal/logger"
)

// Ask sends req through client and parses the reply. Nothing is shared
// between calls, so concurrent Asks are independent.
//
// A backend failure comes back as provider_failed with its in-band
// "ERROR: Can't invoke ..." text attached, readable with RawResponse.
func Ask(ctx context.Context, req AskRequest, client chat.Client) (Query, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return Query{}, errs.New(errs.ErrKindInvalidInput, "prompt is empty")
	}

	log := logger.FromContext(ctx)
	msgs := BuildMessages(req, client.Capabilities())
	log.DebugWith("sending prompt", map[string]interface{}{
		"dialect":      req.Dialect,
		"tables":       req.Schema.Len(),
		"prompt_bytes": len(msgs[0].Content) + len(msgs[1].Content),
		"system_role":  msgs[0].Role == chat.RoleSystem,
	})

	resp, err := client.Chat(ctx, msgs)
	if err != nil {
		if pe, ok := chat.AsProviderError(err); ok && errs.IsProviderFailed(err) {
			return Query{}, errs.Wrap(errs.ErrKindProviderFailed, "AI request failed",
				&ContractError{Raw: pe.AssistantText(), Cause: err})
		}
		return Query{}, err
	}

	q, err := ParseResponse(resp.Message.Content)
	if err != nil {
		log.DebugWith("unparseable AI response", map[string]interface{}{"raw": resp.Message.Content})
		return Query{}, err
	}
	return q, nil
}
