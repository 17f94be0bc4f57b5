package assistant

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/koustreak/dbchat/internal/errs"
)

// Query is a parsed model reply.
type Query struct {
	Summary string `json:"summary"`
	Query   string `json:"query"`
}

// ContractError carries the unparsed model text of a failed exchange.
type ContractError struct {
	Raw   string
	Cause error
}

func (e *ContractError) Error() string {
	return "failed to parse AI response as a SQL query. The AI response was: " + e.Raw
}

func (e *ContractError) Unwrap() error { return e.Cause }

var fenceReplacer = strings.NewReplacer("```json", "", "```", "", `\n`, " ")

// ParseResponse decodes a model reply. Markdown fences are removed and
// literal \n sequences become spaces before decoding; a reply that does not
// decode, or decodes without a query, is a contract_violation carrying the
// original text.
func ParseResponse(text string) (Query, error) {
	cleaned := strings.TrimSpace(fenceReplacer.Replace(text))

	var q Query
	if err := json.Unmarshal([]byte(cleaned), &q); err != nil {
		return Query{}, contractViolation(text, err)
	}
	if strings.TrimSpace(q.Query) == "" {
		return Query{}, contractViolation(text, errors.New(`reply has no "query"`))
	}
	return q, nil
}

func contractViolation(raw string, cause error) *errs.Error {
	return errs.Wrap(errs.ErrKindContractViolation, "AI response is not a summary/query object",
		&ContractError{Raw: raw, Cause: cause})
}

// RawResponse returns the model text attached to a failed Ask, if any.
func RawResponse(err error) (string, bool) {
	var ce *ContractError
	if errors.As(err, &ce) {
		return ce.Raw, true
	}
	return "", false
}
