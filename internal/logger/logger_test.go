package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_LevelAndFormat(t *testing.T) {
	entry := New(Config{Level: "debug", Format: "json", Instance: "montreal"})

	assert.Equal(t, logrus.DebugLevel, entry.Logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, entry.Logger.Formatter)
	assert.Equal(t, "montreal", entry.Data["instance"])
}

func TestNew_DefaultsToInfoText(t *testing.T) {
	entry := New(Config{Level: "loud"})

	assert.Equal(t, logrus.InfoLevel, entry.Logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, entry.Logger.Formatter)
}

func TestOrDiscard(t *testing.T) {
	assert.NotNil(t, OrDiscard(nil))

	l := Discard()
	assert.Equal(t, l, OrDiscard(l))
}
