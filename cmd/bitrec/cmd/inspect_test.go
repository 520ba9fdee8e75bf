/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitrec/pkg/bitstream"
	"github.com/ssargent/bitrec/pkg/config"
)

func TestRunInspect(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "bitrec_inspect_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	cfg := config.DefaultConfig()

	def, ok := cfg.Schema("profile")
	require.True(t, ok)

	rec, err := def.Build()
	require.NoError(t, err)
	rec.Field(0).SetBool(true)
	rec.Field(1).SetUint(1000)
	rec.Field(2).SetStr("go")
	rec.Field(3).SetUint(20)

	s := bitstream.New(rec.SizeHint())
	require.NoError(t, rec.Serialize(s))
	payload := s.Bytes()

	// The encoding is stable; the help text quotes this payload.
	assert.Equal(t, "0da20f00002c00676f2314", hex.EncodeToString(payload))

	payloadPath := filepath.Join(tmpDir, "payload.bin")
	require.NoError(t, os.WriteFile(payloadPath, payload, 0600))

	t.Run("decodes a payload file", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runInspect(&buf, cfg, "profile", payloadPath, false, false))

		out := buf.String()
		assert.Contains(t, out, "schema: profile")
		assert.Contains(t, out, "generation: 0")
		assert.Contains(t, out, "enabled")
		assert.Contains(t, out, "true")
		assert.Contains(t, out, "1000")
		assert.Contains(t, out, `"go"`)
		assert.Contains(t, out, "u8")
		assert.Contains(t, out, "20")
	})

	t.Run("decodes inline hex", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, runInspect(&buf, cfg, "profile", hex.EncodeToString(payload), true, false))

		assert.Contains(t, buf.String(), "1000")
	})

	t.Run("applies a delta to schema defaults", func(t *testing.T) {
		base, err := def.Build()
		require.NoError(t, err)
		target, err := def.Build()
		require.NoError(t, err)
		target.Field(1).SetUint(7)

		d := bitstream.New(target.SizeHint())
		require.NoError(t, base.SerializeDiff(d, target))

		var buf bytes.Buffer
		require.NoError(t, runInspect(&buf, cfg, "profile", hex.EncodeToString(d.Bytes()), true, true))

		assert.Contains(t, buf.String(), "count")
		assert.Contains(t, buf.String(), "7")
	})

	t.Run("rejects unknown schema", func(t *testing.T) {
		var buf bytes.Buffer
		err := runInspect(&buf, cfg, "ghost", payloadPath, false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown schema")
	})

	t.Run("rejects malformed hex", func(t *testing.T) {
		var buf bytes.Buffer
		err := runInspect(&buf, cfg, "profile", "zz", true, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid hex payload")
	})

	t.Run("rejects a missing file", func(t *testing.T) {
		var buf bytes.Buffer
		err := runInspect(&buf, cfg, "profile", filepath.Join(tmpDir, "missing.bin"), false, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read payload")
	})

	t.Run("rejects a truncated payload", func(t *testing.T) {
		var buf bytes.Buffer
		err := runInspect(&buf, cfg, "profile", hex.EncodeToString(payload[:2]), true, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode payload")
	})
}
