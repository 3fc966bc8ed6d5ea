package firebase

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	fbauth "firebase.google.com/go/v4/auth"
)

// Config holds Firebase initialization settings.
type Config struct {
	ProjectID string
}

// Clients bundles the Firebase SDK clients the server needs.
type Clients struct {
	Auth      *fbauth.Client
	Firestore *firestore.Client
}

// InitializeClients creates the Firebase app and its Auth and Firestore clients.
// Emulator hosts are picked up from FIREBASE_AUTH_EMULATOR_HOST and FIRESTORE_EMULATOR_HOST.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase auth: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore: %w", err)
	}

	return &Clients{Auth: authClient, Firestore: fs}, nil
}

// Close releases the underlying clients.
func (c *Clients) Close() error {
	if c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
