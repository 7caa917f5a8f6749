package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	c, err := NewClient(serverURL)
	require.NoError(t, err)
	return c
}

func TestLoginPersistsSession(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "ana@example.com", body["email"])
		_ = json.NewEncoder(w).Encode(map[string]string{
			"token":   "tok-123",
			"user_id": "user-1",
		})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	require.False(t, c.IsLoggedIn())

	require.NoError(t, c.Login("ana@example.com", "secret"))
	require.True(t, c.IsLoggedIn())
	require.Equal(t, "user-1", c.UserID())

	// A fresh client picks the session up from disk.
	again, err := NewClient(ts.URL)
	require.NoError(t, err)
	require.True(t, again.IsLoggedIn())
	require.Equal(t, "user-1", again.UserID())
}

func TestRequestsCarryBearerToken(t *testing.T) {
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		fmt.Fprint(w, "[]")
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)
	c.session.Token = "tok-xyz"

	_, err := c.WorkItems(context.Background(), Filter{})
	require.NoError(t, err)
	require.Equal(t, "Bearer tok-xyz", gotAuth)
}

func TestSentinelErrorMapping(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/workitems":
			http.Error(w, "invalid session", http.StatusUnauthorized)
		default:
			http.Error(w, "no such item", http.StatusNotFound)
		}
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	_, err := c.WorkItems(context.Background(), Filter{})
	require.ErrorIs(t, err, ErrUnauthorized)

	err = c.SoftDelete(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSubscribeParsesFeedEvents(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/events", r.URL.Path)
		w.Header().Set("Content-Type", "text/event-stream")
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		fmt.Fprintf(w, "data: work_items:item-1\n\n")
		fmt.Fprintf(w, ": heartbeat comment, not an event\n\n")
		fmt.Fprintf(w, "data: status_events:item-2\n\n")
		flusher.Flush()

		<-r.Context().Done()
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	var mu sync.Mutex
	var got []string
	sub, err := c.Subscribe(context.Background(), func(table, id string) {
		mu.Lock()
		got = append(got, table+"/"+id)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, sub.Close())

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"work_items/item-1", "status_events/item-2"}, got)
}

func TestUploadLogosPartialFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/logos", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() {
			_ = file.Close()
		}()

		if header.Filename == "broken.png" {
			http.Error(w, "disk full", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{
			"name": header.Filename,
			"url":  "http://files.example.com/" + header.Filename,
		})
	}))
	defer ts.Close()

	c := newTestClient(t, ts.URL)

	results := c.UploadLogos(context.Background(), []LogoUpload{
		{Name: "a.png", Reader: strings.NewReader("aaa")},
		{Name: "broken.png", Reader: strings.NewReader("bbb")},
		{Name: "c.png", Reader: strings.NewReader("ccc")},
	})
	require.Len(t, results, 3)

	// The failing file is reported by name; the succeeding subset is
	// committed, not rolled back.
	require.Equal(t, "a.png", results[0].Name)
	require.NoError(t, results[0].Err)
	require.Equal(t, "http://files.example.com/a.png", results[0].URL)

	require.Equal(t, "broken.png", results[1].Name)
	require.Error(t, results[1].Err)
	require.Empty(t, results[1].URL)

	require.Equal(t, "c.png", results[2].Name)
	require.NoError(t, results[2].Err)
	require.Equal(t, "http://files.example.com/c.png", results[2].URL)
}

func TestQueryEncoding(t *testing.T) {
	require.Equal(t, "", Filter{}.query())
	require.Equal(t, "?month=8&year=2026", Filter{Month: 8, Year: 2026}.query())
	require.Equal(t, "?deleted=true", Filter{Deleted: true}.query())
}
