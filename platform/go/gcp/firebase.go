// Package gcp builds the Google Cloud clients the API depends on.
package gcp

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// FirebaseConfig selects the project and credentials used to verify agent ID tokens.
type FirebaseConfig struct {
	// CredentialsFile points at a service account JSON. Empty uses Application Default Credentials.
	CredentialsFile string
	// ProjectID pins the Firebase project. Empty lets the SDK infer it from the credentials
	// or GOOGLE_CLOUD_PROJECT.
	ProjectID string
}

func (c FirebaseConfig) clientOptions() []option.ClientOption {
	var opts []option.ClientOption
	if path := strings.TrimSpace(c.CredentialsFile); path != "" {
		opts = append(opts, option.WithCredentialsFile(path))
	}
	return opts
}

func (c FirebaseConfig) appConfig() *firebase.Config {
	if id := strings.TrimSpace(c.ProjectID); id != "" {
		return &firebase.Config{ProjectID: id}
	}
	return nil
}

// NewFirebaseAuth initializes the Firebase app for cfg and returns its Auth client.
func NewFirebaseAuth(ctx context.Context, cfg FirebaseConfig) (*firebaseauth.Client, error) {
	app, err := firebase.NewApp(ctx, cfg.appConfig(), cfg.clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	return client, nil
}
