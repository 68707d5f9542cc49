// Package render maps chat messages onto display-ready views. It is the
// single place that decides which parts of a reply are shown and in what
// order, so every chat surface renders identically.
package render

import (
	"fmt"
	"sort"

	"github.com/mkoudsi/opstower/internal/chat"
)

// maxPreviewRows bounds the table preview; the full row count is still
// reported in the overflow note.
const maxPreviewRows = 20

// imageMimes lists the visualization formats rendered inline. Anything
// else is ignored rather than guessed at.
var imageMimes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/gif":     true,
	"image/svg+xml": true,
}

// TablePreview is a bounded tabular rendering of reply rows.
type TablePreview struct {
	Columns      []string         `json:"columns"`
	Rows         []map[string]any `json:"rows"`
	OverflowNote string           `json:"overflowNote,omitempty"`
}

// ImageView is an inline chart image.
type ImageView struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// MetaField is one auxiliary reply attribute shown after the main content.
type MetaField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// View is the display-ready form of one message. Sections render in
// struct order: text, SQL, table, image, meta, email preview.
type View struct {
	ID           int64         `json:"id"`
	Role         chat.Role     `json:"role"`
	Text         string        `json:"text"`
	SQL          string        `json:"sql,omitempty"`
	Table        *TablePreview `json:"table,omitempty"`
	Image        *ImageView    `json:"image,omitempty"`
	Meta         []MetaField   `json:"meta,omitempty"`
	EmailSubject string        `json:"emailSubject,omitempty"`
	EmailBody    string        `json:"emailBody,omitempty"`
}

// Build maps one message onto its view. Absent message parts yield absent
// view sections; there are no placeholders.
func Build(msg chat.Message) View {
	v := View{
		ID:   msg.ID,
		Role: msg.Role,
		Text: msg.Content,
		SQL:  msg.SQL,
	}

	if len(msg.Rows) > 0 {
		v.Table = buildTable(msg.Rows)
	}

	if msg.Viz != nil && imageMimes[msg.Viz.MimeType] {
		v.Image = &ImageView{Base64: msg.Viz.ImageBase64, MimeType: msg.Viz.MimeType}
	}

	v.Meta, v.EmailSubject, v.EmailBody = buildMeta(msg.Meta)

	return v
}

// BuildAll maps a whole conversation in order.
func BuildAll(msgs []chat.Message) []View {
	views := make([]View, len(msgs))
	for i, msg := range msgs {
		views[i] = Build(msg)
	}
	return views
}

func buildTable(rows []map[string]any) *TablePreview {
	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	preview := rows
	note := ""
	if len(rows) > maxPreviewRows {
		preview = rows[:maxPreviewRows]
		note = fmt.Sprintf("Showing first %d of %d rows", maxPreviewRows, len(rows))
	}
	return &TablePreview{Columns: columns, Rows: preview, OverflowNote: note}
}

// buildMeta splits the email preview out of the meta fields; the remainder
// is rendered as sorted key/value pairs.
func buildMeta(meta map[string]any) ([]MetaField, string, string) {
	if len(meta) == 0 {
		return nil, "", ""
	}

	subject, _ := meta["email_subject"].(string)
	body, _ := meta["email_body"].(string)

	keys := make([]string, 0, len(meta))
	for key := range meta {
		if key == "email_subject" || key == "email_body" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make([]MetaField, 0, len(keys))
	for _, key := range keys {
		fields = append(fields, MetaField{Key: key, Value: fmt.Sprint(meta[key])})
	}
	if len(fields) == 0 {
		fields = nil
	}
	return fields, subject, body
}
