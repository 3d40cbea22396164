package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validOAuthClient() OAuthClientConfig {
	return OAuthClientConfig{
		Installed: OAuthInstalled{
			ClientID:                "test-client-id.apps.googleusercontent.com",
			ProjectID:               "test-project",
			AuthURI:                 "https://accounts.google.com/o/oauth2/auth",
			TokenURI:                "https://oauth2.googleapis.com/token",
			AuthProviderX509CertURL: "https://www.googleapis.com/oauth2/v1/certs",
			ClientSecret:            "test-secret",
			RedirectURIs:            []string{"http://localhost"},
		},
	}
}

func TestValidateOAuthClient(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *OAuthInstalled)
		valid  bool
	}{
		{"valid", func(c *OAuthInstalled) {}, true},
		{"missing client id", func(c *OAuthInstalled) { c.ClientID = "" }, false},
		{"invalid auth url", func(c *OAuthInstalled) { c.AuthURI = "not-a-valid-url" }, false},
		{"no redirect uris", func(c *OAuthInstalled) { c.RedirectURIs = []string{} }, false},
		{"invalid redirect uri", func(c *OAuthInstalled) { c.RedirectURIs = []string{"not a valid uri"} }, false},
		{"several redirect uris", func(c *OAuthInstalled) {
			c.RedirectURIs = []string{"http://localhost:8080", "urn:ietf:wg:oauth:2.0:oob"}
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validOAuthClient()
			tt.mutate(&cfg.Installed)

			err := ValidateOAuthClient(&cfg)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), "validation failed")
		})
	}
}

func TestLoadOAuthClientFromPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "roster_oauth_client.json")

	cfg := validOAuthClient()
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	loaded, err := LoadOAuthClientFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)

	creds, err := loaded.CredentialsJSON()
	require.NoError(t, err)
	assert.Contains(t, string(creds), `"installed"`)
	assert.Contains(t, string(creds), `"client_secret":"test-secret"`)
}

func TestLoadOAuthClientFromPath_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invalid_oauth.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"installed": {"client_id": "test" "project_id": "x"}}`), 0644))

	_, err := LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse oauth client file")
}

func TestLoadOAuthClientFromPath_MissingRequired(t *testing.T) {
	cfg := validOAuthClient()
	cfg.Installed.ClientSecret = ""
	data, err := json.Marshal(cfg)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "missing_field.json")
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = LoadOAuthClientFromPath(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoadOAuthClientFromPath_FileNotFound(t *testing.T) {
	_, err := LoadOAuthClientFromPath("/nonexistent/path/roster_oauth_client.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read oauth client file")
}

func TestLoadOAuthClientWithEnv(t *testing.T) {
	tmpDir := t.TempDir()
	data, err := json.Marshal(validOAuthClient())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "roster_oauth_client.test.json"), data, 0644))

	t.Chdir(tmpDir)
	loaded, err := LoadOAuthClientWithEnv("test")
	require.NoError(t, err)
	assert.Equal(t, "test-project", loaded.Installed.ProjectID)
}
