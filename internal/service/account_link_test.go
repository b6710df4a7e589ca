package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	config "github.com/openpost/composer/configs"
	"github.com/openpost/composer/internal/compose"
	"github.com/openpost/composer/internal/repository"
)

func TestValidateLinkedAccount(t *testing.T) {
	cases := []struct {
		name     string
		platform string
		username string
		token    string
		wantErr  bool
	}{
		{"complete", compose.PlatformMastodon, "alice", "tok", false},
		{"missing platform", "", "alice", "tok", true},
		{"missing username", compose.PlatformMastodon, "", "tok", true},
		{"missing token", compose.PlatformMastodon, "alice", "", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateLinkedAccount(tc.platform, tc.username, tc.token)
			if tc.wantErr && !compose.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLinkBlueskyAccount_IncompleteSessionRejected(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	// a PDS that creates a session but leaves the handle empty
	pds := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/xrpc/com.atproto.server.createSession":
			json.NewEncoder(w).Encode(map[string]string{
				"did": "did:plc:abc123", "handle": "", "accessJwt": "jwt", "refreshJwt": "rjwt",
			})
		case "/xrpc/app.bsky.actor.getProfile":
			json.NewEncoder(w).Encode(map[string]string{"displayName": "Alice"})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(pds.Close)

	s := NewBlueskyService(config.Config{BlueskyPDSURL: pds.URL},
		repository.NewSocialAccountRepository(db))

	err = s.LinkAccount(context.Background(), 1, "alice.test", "app-pass")
	if !compose.IsValidationError(err) {
		t.Fatalf("expected validation error for empty handle, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no account row should be written: %v", err)
	}
}
