/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitrec/pkg/api"
	"github.com/ssargent/bitrec/pkg/config"
	"github.com/ssargent/bitrec/pkg/di"
)

// fakeStarter records the arguments it was started with instead of
// binding a listener.
type fakeStarter struct {
	captures api.ICaptureStore
	config   api.ServerConfig
}

func (f *fakeStarter) StartServer(captures api.ICaptureStore, config api.ServerConfig) error {
	f.captures = captures
	f.config = config
	return nil
}

type fakeFactory struct {
	starter *fakeStarter
}

func (f *fakeFactory) CreateServerStarter() api.ServerStarter {
	return f.starter
}

func TestStartAPIServer(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "bitrec_serve_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	starter := &fakeStarter{}
	container := di.NewContainer()
	container.SetServerFactory(&fakeFactory{starter: starter})
	SetContainer(container)
	defer SetContainer(nil)

	cfg := config.DefaultConfig()
	cfg.DataDir = tmpDir
	cfg.Port = 9001
	cfg.Security.ClientAPIKey = "client-key"

	require.NoError(t, startAPIServer(cfg))

	assert.NotNil(t, starter.captures)
	assert.Equal(t, 9001, starter.config.Port)
	assert.Equal(t, "127.0.0.1", starter.config.Bind)
	assert.Equal(t, "client-key", starter.config.APIKey)
	assert.Equal(t, 4096, starter.config.MaxRecordSize)
	assert.Len(t, starter.config.Schemas, 1)
	assert.Len(t, starter.config.Layouts, 1)
}

func TestStartAPIServerRequiresContainer(t *testing.T) {
	SetContainer(nil)

	err := startAPIServer(config.DefaultConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency container not initialized")
}
