package logger_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vytor/studyflash/internal/logger"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logger.DEBUG, logger.ParseLevel("debug"))
	assert.Equal(t, logger.WARN, logger.ParseLevel("WARNING"))
	assert.Equal(t, logger.ERROR, logger.ParseLevel("Error"))
	assert.Equal(t, logger.INFO, logger.ParseLevel("nonsense"))
}

func TestLogger_FiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevel(logger.WARN), logger.WithColors(false))

	log.Info("hidden")
	log.Warn("shown %d", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, "WARN")
}

func TestLogger_FieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithColors(false)).
		WithPrefix("chat").
		WithFields(map[string]any{"zeta": 1, "alpha": "a", "mid": true})

	log.Info("proposal stored")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "[chat]")
	assert.True(t, strings.HasSuffix(line, "proposal stored alpha=a mid=true zeta=1"), line)
}

func TestLogger_WithError(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithColors(false))

	log.WithError(stderrors.New("llm down")).Error("chat failed")
	log.WithError(nil).Info("no error field")

	out := buf.String()
	assert.Contains(t, out, "chat failed error=llm down")
	assert.NotContains(t, strings.Split(out, "\n")[1], "error=")
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithColors(false)).WithField("request_id", "abc")

	ctx := logger.NewContext(context.Background(), log)
	logger.FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "request_id=abc")
	assert.Equal(t, logger.Default(), logger.FromContext(context.Background()))
}
