package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pagebound/pagebound/internal/database"
	"github.com/pagebound/pagebound/internal/model"
)

// seedSessionDB creates a database with one completed and one interrupted
// session and returns its directory.
func seedSessionDB(t *testing.T, seedURL string) string {
	t.Helper()

	dbDir := t.TempDir()
	store, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close() //nolint:errcheck // test cleanup

	ctx := context.Background()

	completed, err := store.StartSession(ctx, seedURL, 2, 50)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.EndSession(ctx, completed, model.SessionCompleted, 12, 0); err != nil {
		t.Fatal(err)
	}

	interrupted, err := store.StartSession(ctx, seedURL, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SavePage(ctx, interrupted, &model.PageResult{URL: seedURL, StatusCode: 200}, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.EndSession(ctx, interrupted, model.SessionInterrupted, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.SavePendingWork(ctx, interrupted, []model.FrontierEntry{
		{URL: seedURL + "about", Depth: 1},
	}); err != nil {
		t.Fatal(err)
	}

	return dbDir
}

// TestSessionsCmdList tests the sessions listing.
func TestSessionsCmdList(t *testing.T) {
	dbDir := seedSessionDB(t, "https://example.com/")

	cmd := NewSessionsCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--db-dir", dbDir})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "https://example.com/") {
		t.Errorf("expected session URL in output, got %q", output)
	}
	if !strings.Contains(output, "completed") {
		t.Errorf("expected completed session in output, got %q", output)
	}
	if !strings.Contains(output, "(resumable)") {
		t.Errorf("expected resumable marker in output, got %q", output)
	}
}

// TestSessionsCmdShow tests showing a single session.
func TestSessionsCmdShow(t *testing.T) {
	dbDir := seedSessionDB(t, "https://example.com/")

	cmd := NewSessionsCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--db-dir", dbDir, "2"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "Session 2") {
		t.Errorf("expected session details, got %q", output)
	}
	if !strings.Contains(output, "pagebound resume 2") {
		t.Errorf("expected resume hint, got %q", output)
	}
}

// TestSessionsCmdErrors tests sessions command failure modes.
func TestSessionsCmdErrors(t *testing.T) {
	t.Run("missing database", func(t *testing.T) {
		cmd := NewSessionsCmd()
		cmd.SetArgs([]string{"--db-dir", t.TempDir()})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for missing database")
		}
	})

	t.Run("unknown session", func(t *testing.T) {
		dbDir := seedSessionDB(t, "https://example.com/")
		cmd := NewSessionsCmd()
		cmd.SetArgs([]string{"--db-dir", dbDir, "99"})
		err := cmd.Execute()
		if err == nil || !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected not-found error, got %v", err)
		}
	})

	t.Run("invalid session id", func(t *testing.T) {
		dbDir := seedSessionDB(t, "https://example.com/")
		cmd := NewSessionsCmd()
		cmd.SetArgs([]string{"--db-dir", dbDir, "twelve"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid session ID")
		}
	})
}

// TestResumeCmd resumes an interrupted session against a local server.
func TestResumeCmd(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Root</title></head><body><a href="/about">about</a></body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>About</title></head><body>about</body></html>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	seedURL := srv.URL + "/"
	dbDir := t.TempDir()

	store, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	ctx := context.Background()
	sessionID, err := store.StartSession(ctx, seedURL, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.SavePage(ctx, sessionID, &model.PageResult{URL: seedURL, StatusCode: 200}, nil); err != nil {
		t.Fatal(err)
	}
	if err := store.EndSession(ctx, sessionID, model.SessionInterrupted, 1, 0); err != nil {
		t.Fatal(err)
	}
	if err := store.SavePendingWork(ctx, sessionID, []model.FrontierEntry{
		{URL: srv.URL + "/about", Depth: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	cmd := NewResumeCmd()
	cmd.SetArgs([]string{
		"--db-dir", dbDir,
		"--delay", "0s",
		"-o", filepath.Join(t.TempDir(), "pages"),
		"1",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	store, err = database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer store.Close() //nolint:errcheck // test cleanup

	session, err := store.GetSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if session.Status != model.SessionCompleted {
		t.Errorf("status = %q, want completed", session.Status)
	}
	// One page before the interruption plus the resumed /about page.
	if session.PagesCrawled != 2 {
		t.Errorf("PagesCrawled = %d, want 2", session.PagesCrawled)
	}

	// The already-downloaded seed must not be fetched again.
	visited, err := store.LoadVisited(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if len(visited) != 2 {
		t.Errorf("stored pages = %d, want 2", len(visited))
	}
}

// TestResumeCmdNotResumable tests resuming a completed session.
func TestResumeCmdNotResumable(t *testing.T) {
	dbDir := seedSessionDB(t, "https://example.com/")

	cmd := NewResumeCmd()
	cmd.SetArgs([]string{"--db-dir", dbDir, "1"})

	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "not resumable") {
		t.Errorf("expected not-resumable error, got %v", err)
	}
}
