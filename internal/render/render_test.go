package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/mkoudsi/opstower/internal/chat"
)

func TestBuildTextOnlyMessage(t *testing.T) {
	t.Parallel()

	v := Build(chat.Message{ID: 1, Role: chat.RoleAssistant, Content: "All good"})
	if v.Text != "All good" {
		t.Fatalf("unexpected text: %q", v.Text)
	}
	if v.Table != nil || v.Image != nil || v.Meta != nil || v.SQL != "" {
		t.Fatalf("absent parts must yield absent sections: %+v", v)
	}
}

func TestBuildTableColumnsSortedAndBounded(t *testing.T) {
	t.Parallel()

	rows := make([]map[string]any, maxPreviewRows+15)
	for i := range rows {
		rows[i] = map[string]any{"zeta": i, "alpha": i, "mid": i}
	}
	v := Build(chat.Message{Role: chat.RoleAssistant, Rows: rows})

	if v.Table == nil {
		t.Fatal("expected table section")
	}
	want := []string{"alpha", "mid", "zeta"}
	if len(v.Table.Columns) != len(want) {
		t.Fatalf("unexpected columns: %v", v.Table.Columns)
	}
	for i, col := range want {
		if v.Table.Columns[i] != col {
			t.Fatalf("columns not sorted: %v", v.Table.Columns)
		}
	}
	if len(v.Table.Rows) != maxPreviewRows {
		t.Fatalf("expected %d preview rows, got %d", maxPreviewRows, len(v.Table.Rows))
	}
	if !strings.Contains(v.Table.OverflowNote, fmt.Sprint(len(rows))) {
		t.Fatalf("overflow note must carry the full count: %q", v.Table.OverflowNote)
	}
}

func TestBuildSmallTableHasNoOverflowNote(t *testing.T) {
	t.Parallel()

	v := Build(chat.Message{Role: chat.RoleAssistant, Rows: []map[string]any{{"a": 1}}})
	if v.Table == nil || v.Table.OverflowNote != "" {
		t.Fatalf("unexpected table state: %+v", v.Table)
	}
}

func TestBuildImageOnlyForKnownMimes(t *testing.T) {
	t.Parallel()

	withPNG := Build(chat.Message{Role: chat.RoleAssistant, Viz: &chat.Visualization{
		ImageBase64: "aGk=", MimeType: "image/png",
	}})
	if withPNG.Image == nil || withPNG.Image.MimeType != "image/png" {
		t.Fatalf("expected inline png, got %+v", withPNG.Image)
	}

	withPDF := Build(chat.Message{Role: chat.RoleAssistant, Viz: &chat.Visualization{
		ImageBase64: "aGk=", MimeType: "application/pdf",
	}})
	if withPDF.Image != nil {
		t.Fatalf("unrecognized mime must not render inline: %+v", withPDF.Image)
	}
}

func TestBuildMetaSplitsEmailPreview(t *testing.T) {
	t.Parallel()

	v := Build(chat.Message{Role: chat.RoleAssistant, Meta: map[string]any{
		"rows_affected": int64(3),
		"email_subject": "Daily waste report",
		"email_body":    "Waste is up 4%.",
	}})

	if v.EmailSubject != "Daily waste report" || v.EmailBody != "Waste is up 4%." {
		t.Fatalf("email preview not extracted: %+v", v)
	}
	if len(v.Meta) != 1 || v.Meta[0].Key != "rows_affected" || v.Meta[0].Value != "3" {
		t.Fatalf("unexpected meta fields: %+v", v.Meta)
	}
}

func TestBuildAllPreservesOrder(t *testing.T) {
	t.Parallel()

	views := BuildAll([]chat.Message{
		{ID: 1, Role: chat.RoleUser, Content: "q"},
		{ID: 2, Role: chat.RoleAssistant, Content: "a"},
	})
	if len(views) != 2 || views[0].ID != 1 || views[1].ID != 2 {
		t.Fatalf("order not preserved: %+v", views)
	}
}
