package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	pubsub "cloud.google.com/go/pubsub/v2"
	"cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/monisha-uniforms/storefront-backend/pkg/config"
	"github.com/monisha-uniforms/storefront-backend/pkg/logger"
	"github.com/monisha-uniforms/storefront-backend/pkg/types"
)

var errProjectIDRequired = errors.New("gcp project id is required")

// Client publishes storefront activity to the configured topic. A nil
// Client is valid and drops every publish; services treat activity as
// best-effort.
type Client struct {
	client    *pubsub.Client
	projectID string
	topic     string
}

// NewClient creates a Pub/Sub v2 client and verifies the activity topic
// exists. An empty topic name disables publishing and returns a nil Client.
func NewClient(ctx context.Context, projectID string, cfg config.PubSubConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ActivityTopic) == "" {
		if logg != nil {
			logg.Warn(ctx, "activity topic not configured, publishing disabled")
		}
		return nil, nil
	}
	if strings.TrimSpace(projectID) == "" {
		return nil, errProjectIDRequired
	}

	psClient, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	c := &Client{
		client:    psClient,
		projectID: projectID,
		topic:     strings.TrimSpace(cfg.ActivityTopic),
	}

	if err := c.ensureTopicExists(ctx); err != nil {
		_ = psClient.Close()
		return nil, err
	}

	if logg != nil {
		logg.Info(ctx, "pubsub client initialized")
	}

	return c, nil
}

func (c *Client) ensureTopicExists(ctx context.Context) error {
	fullName := c.topicResourceName(c.topic)
	if fullName == "" {
		return fmt.Errorf("activity topic %q not configured", c.topic)
	}

	_, err := c.client.TopicAdminClient.GetTopic(
		ctx,
		&pubsubpb.GetTopicRequest{Topic: fullName},
	)
	if err != nil {
		// v2 uses gRPC errors; NotFound means the topic doesn't exist.
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("activity topic %q does not exist", c.topic)
		}
		return fmt.Errorf("checking activity topic %q: %w", c.topic, err)
	}

	return nil
}

// PublishActivity sends one activity event. Safe on a nil Client.
func (c *Client) PublishActivity(ctx context.Context, event types.ActivityEvent) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding activity event: %w", err)
	}
	publisher := c.client.Publisher(c.topicResourceName(c.topic))
	result := publisher.Publish(ctx, &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"type":      event.Type,
			"ownerKind": event.OwnerKind,
		},
	})
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publishing activity event: %w", err)
	}
	return nil
}

// Ping verifies Pub/Sub connectivity by checking the topic exists.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.ensureTopicExists(ctx)
}

// Close releases the Pub/Sub client resources.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

func (c *Client) topicResourceName(name string) string {
	if c == nil {
		return ""
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}
	if strings.HasPrefix(n, "projects/") && strings.Contains(n, "/topics/") {
		return n
	}
	p := strings.TrimSpace(c.projectID)
	if p == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/topics/%s", p, n)
}
