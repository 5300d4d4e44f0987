package main

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelRouterSplitsByLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(newLevelRouter(&out, &errOut, slog.LevelInfo))

	logger.Debug("hidden")
	logger.Info("hello", "k", "v")
	logger.Warn("careful")
	logger.Error("broken")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "msg=hello k=v")
	assert.Contains(t, out.String(), "msg=careful")
	assert.NotContains(t, out.String(), "broken")
	assert.Contains(t, errOut.String(), "msg=broken")
}

func TestLevelRouterKeepsAttrsAndLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	logger := slog.New(newLevelRouter(&out, &errOut, slog.LevelDebug)).With("component", "web")

	logger.Debug("visible")
	logger.WithGroup("req").Error("failed", "status", 502)

	assert.Contains(t, out.String(), "component=web")
	assert.Contains(t, out.String(), "msg=visible")
	assert.Contains(t, errOut.String(), "req.status=502")
}
