package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 2*time.Second, 2*time.Second)
}

func TestGetOmitsEmptyQueryParams(t *testing.T) {
	t.Parallel()

	var gotQuery string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(FactoryKPIs{LineUtilization: 80})
	})

	kpis, err := c.FactoryKPIs(context.Background(), "FAC_RIYADH", "")
	if err != nil {
		t.Fatalf("FactoryKPIs failed: %v", err)
	}
	if kpis.LineUtilization != 80 {
		t.Fatalf("unexpected decode: %+v", kpis)
	}
	if gotQuery != "factory_id=FAC_RIYADH" {
		t.Fatalf("expected only factory_id param, got %q", gotQuery)
	}
}

func TestGetReportsNon2xxUniformly(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := c.DCKPIs(context.Background(), "DC_JEDDAH")
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "unexpected status 500") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestQueryPostsQuestionAndDecodesReply(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/query" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["question"] != "How much waste today?" {
			t.Errorf("unexpected question: %q", req["question"])
		}
		rowsAffected := int64(2)
		_ = json.NewEncoder(w).Encode(QueryReply{
			SQL:          "UPDATE waste SET reviewed = 1",
			Summary:      "Updated 2 rows",
			RowsAffected: &rowsAffected,
		})
	})

	reply, err := c.Query(context.Background(), "How much waste today?")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if reply.Summary != "Updated 2 rows" {
		t.Fatalf("unexpected summary: %q", reply.Summary)
	}
	if reply.RowsAffected == nil || *reply.RowsAffected != 2 {
		t.Fatalf("unexpected rows_affected: %v", reply.RowsAffected)
	}
}

func TestQueryErrorOnNon2xx(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"agent crashed"}`, http.StatusBadGateway)
	})

	if _, err := c.Query(context.Background(), "q"); err == nil {
		t.Fatal("expected error on 502")
	}
}

func TestQueryRespectsTimeout(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL, time.Second, 50*time.Millisecond)
	start := time.Now()
	if _, err := c.Query(context.Background(), "slow"); err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("query did not honor its timeout, took %v", elapsed)
	}
}
