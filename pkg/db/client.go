package db

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client wraps the shared Firestore connection.
type Client struct {
	conn      *firestore.Client
	projectID string
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New boots a Firestore client for the configured project. When no
// credentials file is set, Application Default Credentials are used.
func New(ctx context.Context, cfg config.FirebaseConfig, logg *logger.Logger) (*Client, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	conn, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("opening firestore connection: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "firestore connection established")
	}

	return &Client{conn: conn, projectID: cfg.ProjectID}, nil
}

// DB returns the underlying Firestore connection.
func (c *Client) DB() *firestore.Client {
	return c.conn
}

// ProjectID reports the GCP project the client is bound to.
func (c *Client) ProjectID() string {
	if c == nil {
		return ""
	}
	return c.projectID
}

// Ping verifies the datasource is reachable. Firestore has no ping API, so
// a minimal collection listing stands in.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("firestore client not initialized")
	}
	iter := c.conn.Collections(ctx)
	if _, err := iter.Next(); err != nil && err != iterator.Done {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// Close releases the Firestore connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}
