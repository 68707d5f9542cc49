// Package chat implements the shared conversational query session. One
// Session instance backs every surface showing the conversation, so all
// of them observe identical history, draft and pending state.
package chat

import (
	"time"

	"github.com/mkoudsi/opstower/internal/upstream"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// maxStoredRows bounds how many result rows a message retains. Replies can
// carry arbitrarily large result sets; the conversation only ever shows a
// preview.
const maxStoredRows = 500

// Visualization is a chart image attached to an assistant reply.
type Visualization struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

// Message is one entry in the conversation. IDs are assigned by the
// session and strictly increase in append order.
type Message struct {
	ID        int64            `json:"id"`
	Role      Role             `json:"role"`
	Content   string           `json:"content"`
	SQL       string           `json:"sql,omitempty"`
	Rows      []map[string]any `json:"rows,omitempty"`
	Viz       *Visualization   `json:"viz,omitempty"`
	Meta      map[string]any   `json:"meta,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
}

// fromReply maps a structured query reply onto an assistant message.
// Every reply field is optional; only present fields are carried over.
func fromReply(reply *upstream.QueryReply) Message {
	msg := Message{Role: RoleAssistant}

	switch {
	case reply.Summary != "":
		msg.Content = reply.Summary
	default:
		msg.Content = reply.Content
	}

	msg.SQL = reply.SQL

	if len(reply.Data) > 0 {
		rows := reply.Data
		if len(rows) > maxStoredRows {
			rows = rows[:maxStoredRows]
		}
		msg.Rows = rows
	}

	if reply.Viz != "" {
		mime := reply.Mime
		if mime == "" {
			mime = "image/png"
		}
		msg.Viz = &Visualization{ImageBase64: reply.Viz, MimeType: mime}
	}

	meta := map[string]any{}
	if reply.RowsAffected != nil {
		meta["rows_affected"] = *reply.RowsAffected
	}
	if reply.EmailSubject != "" {
		meta["email_subject"] = reply.EmailSubject
	}
	if reply.EmailBody != "" {
		meta["email_body"] = reply.EmailBody
	}
	if len(meta) > 0 {
		msg.Meta = meta
	}

	return msg
}
