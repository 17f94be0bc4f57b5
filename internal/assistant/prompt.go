// Package assistant turns a natural-language question plus a database
// schema into a SQL query by way of a chat backend, enforcing the
// single-line {"summary","query"} reply contract.
package assistant

import (
	"strconv"
	"strings"

	"github.com/koustreak/dbchat/internal/chat"
	"github.com/koustreak/dbchat/internal/schema"
)

// AskRequest is one question against one schema.
type AskRequest struct {
	Prompt  string
	Schema  *schema.DatabaseSchema
	Dialect string // engine name as the model should see it, e.g. "MSSQL"
	MaxRows int
}

// BuildPrompt renders the instruction block. Every line ends in "\n".
func BuildPrompt(s *schema.DatabaseSchema, dialect string, maxRows int) string {
	var sb strings.Builder
	line := func(text string) {
		sb.WriteString(text)
		sb.WriteByte('\n')
	}

	line("Your are a helpful, cheerful database assistant. Do not respond with any information unrelated to databases or queries. Use the following database schema when creating your answers:")
	if s != nil {
		for _, raw := range s.Raw {
			line(raw)
		}
	}
	line("Include column name headers in the query results.")
	line("Always provide your answer in the JSON format below:")
	line(`{ "summary": "your-summary", "query":  "your-query" }`)
	line("Output ONLY JSON formatted on a single line. Do not use new line characters.")
	line(`In the preceding JSON response, substitute "your-query" with the database query used to retrieve the requested data.`)
	line(`In the preceding JSON response, substitute "your-summary" with an explanation of each step you took to create this query in a detailed paragraph.`)
	line("Only use " + dialect + " syntax for database queries.")
	line("Always limit the SQL Query to " + strconv.Itoa(maxRows) + " rows.")
	line("Always include all of the table columns and details.")

	return sb.String()
}

// BuildMessages returns the conversation for req. The instruction block is
// a system message unless the backend cannot take one, in which case it is
// sent as a user message; the question always follows as a user message.
func BuildMessages(req AskRequest, caps chat.Capabilities) []chat.Message {
	instructions := BuildPrompt(req.Schema, req.Dialect, req.MaxRows)

	first := chat.System(instructions)
	if !caps.SystemRole {
		first = chat.User(instructions)
	}
	return []chat.Message{first, chat.User(req.Prompt)}
}
