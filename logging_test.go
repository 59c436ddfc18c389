package framegraph

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultLogger_LevelsAndStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLogger("fg", false, &out, &errOut)

	l.Debugf("hidden %d", 1)
	l.Infof("frame %d", 2)
	l.Warnf("slow")
	l.Errorf("lost %s", "device")

	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "[fg] INFO: frame 2")
	assert.Contains(t, errOut.String(), "[fg] WARN: slow")
	assert.Contains(t, errOut.String(), "[fg] ERROR: lost device")

	l.SetDebug(true)
	assert.True(t, l.DebugEnabled())
	l.Debugf("shown")
	assert.Contains(t, out.String(), "DEBUG: shown")
}

func TestDefaultLogger_NoPrefix(t *testing.T) {
	var out bytes.Buffer
	NewLogger("", false, &out, &out).Infof("x")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out.String()), "INFO: x"))
}

func TestApp_LoggerFallsBackToNop(t *testing.T) {
	var app *App
	assert.NotNil(t, app.Logger())
	assert.IsType(t, nopLogger{}, NewAppBuilder().Build().Logger())
}
