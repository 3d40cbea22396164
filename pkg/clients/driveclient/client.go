package driveclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/jakechorley/theatre-rota/internal/config"
	"github.com/jakechorley/theatre-rota/pkg/utils"
)

const pdfMimeType = "application/pdf"

// Client uploads rendered schedules to a Google Drive folder
type Client struct {
	service  *drive.Service
	token    *oauth2.Token
	folderID string
}

// NewClient creates a Drive client using OAuth credentials and performs the OAuth flow if needed.
// Tokens are persisted to disk for the given environment.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env, folderID string, logger *zap.Logger) (*Client, error) {
	if folderID == "" {
		return nil, errors.New("drive folder id is required")
	}

	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	store, err := utils.NewTokenStore(env)
	if err != nil {
		return nil, err
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, store, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	httpClient := oauthConfig.Client(ctx, token)

	service, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	return &Client{
		service:  service,
		token:    token,
		folderID: folderID,
	}, nil
}

// Service returns the underlying drive service for direct API access
func (c *Client) Service() *drive.Service {
	return c.service
}

// Put uploads a PDF into the configured folder and returns the Drive file id
func (c *Client) Put(ctx context.Context, name string, data []byte) (string, error) {
	file := &drive.File{
		Name:     name,
		MimeType: pdfMimeType,
		Parents:  []string{c.folderID},
	}

	created, err := c.service.Files.Create(file).
		Media(bytes.NewReader(data)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", name, err)
	}

	return created.Id, nil
}
