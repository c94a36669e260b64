// Package blobstore uploads attendance attachments to Google Drive, the
// dispatch core's external blob collaborator. Field workers uploading a
// photo from a clock event aren't present to click through a browser
// consent screen, so this uses a server-to-server client-credentials
// token source rather than a three-legged oauth2.Config flow.
package blobstore

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/oauth2/clientcredentials"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Uploader is the narrow interface the attendance engine depends on, so
// tests can substitute a fake without touching Google's API.
type Uploader interface {
	Upload(ctx context.Context, ownerUserID, filename string, data []byte) (url string, err error)
}

// Store uploads attachments into a single shared Drive folder; each file's
// name is prefixed with the owning user's id so a human reviewer can tell
// uploads per worker apart.
type Store struct {
	config   clientcredentials.Config
	folderID string
}

// New builds a Store from client-credentials OAuth parameters and the
// Drive folder id attachments are filed under.
func New(tokenURL, clientID, clientSecret, folderID string) *Store {
	return &Store{
		config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       []string{drive.DriveFileScope},
		},
		folderID: folderID,
	}
}

// Upload is a best-effort attachment upload. The attendance engine treats
// a returned error as non-fatal: it persists the clock event without the
// attachment URL and records attachment_upload_failed in the audit
// context.
func (s *Store) Upload(ctx context.Context, ownerUserID, filename string, data []byte) (string, error) {
	client := s.config.Client(ctx)
	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return "", fmt.Errorf("blobstore: building drive service: %w", err)
	}

	f := &drive.File{
		Name:        fmt.Sprintf("%s-%s", ownerUserID, filename),
		Parents:     []string{s.folderID},
		Description: "dispatch attendance attachment",
	}
	created, err := srv.Files.Create(f).Media(bytes.NewReader(data)).Do()
	if err != nil {
		return "", fmt.Errorf("blobstore: uploading %q: %w", filename, err)
	}
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", created.Id), nil
}
