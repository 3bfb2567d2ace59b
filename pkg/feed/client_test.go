package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/target/events" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"sport":"Football","home":"Arsenal","away":"Chelsea","market":"h2h",
			 "outcomes":[{"name":"Arsenal","odds":2.1},{"name":"Draw","odds":3.4},{"name":"Chelsea","odds":3.2}]}
		]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	events, err := c.Events(context.Background())
	if err != nil {
		t.Fatalf("Events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Home != "Arsenal" || ev.Away != "Chelsea" || len(ev.Outcomes) != 3 {
		t.Errorf("event decoded wrong: %+v", ev)
	}
	if ev.Outcomes[0].Odds != 2.1 {
		t.Errorf("odds = %v, want 2.1", ev.Outcomes[0].Odds)
	}
}

func TestClientReferenceEventsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("sport_key") != "soccer_epl" || q.Get("markets") != "totals" {
			t.Errorf("query = %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.ReferenceEvents(context.Background(), "soccer_epl", "totals"); err != nil {
		t.Fatalf("ReferenceEvents: %v", err)
	}
}

func TestClientResolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("match_id") == "gone" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"finished","score":"2-1","winning_outcomes":["Arsenal"]}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))

	result, err := c.Resolve(context.Background(), ResultQuery{
		MatchID:   "m1",
		Home:      "Arsenal",
		Away:      "Chelsea",
		StartTime: time.Now(),
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if result == nil || result.Status != StatusFinished || result.Score != "2-1" {
		t.Fatalf("result = %+v", result)
	}

	// 404 means no result yet, not an error
	result, err = c.Resolve(context.Background(), ResultQuery{MatchID: "gone"})
	if err != nil {
		t.Fatalf("Resolve 404: %v", err)
	}
	if result != nil {
		t.Errorf("404 should yield nil result, got %+v", result)
	}
}

func TestClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "scrape failed", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL))
	if _, err := c.Events(context.Background()); err == nil {
		t.Fatal("expected error on 502")
	}
}
