package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/go-logr/zapr"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func Test_ProductionEncoderConfigEncodesLogKeysAsJSON(t *testing.T) {
	testBuf := &bytes.Buffer{}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	enc := zapcore.NewJSONEncoder(encCfg)

	core := &fakeCore{
		LevelEnabler: zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
			return lvl >= zapcore.InfoLevel
		}),
		enc:    enc,
		buffer: testBuf,
	}

	zapLogger := zap.New(core)
	defer require.NoError(t, zapLogger.Sync())
	testLogger := zapr.NewLogger(zapLogger)

	testLogger.Info("tier settled", Tier, 2, Phase, "READY_APPLY", Kind, "tag", Name, "a_1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(testBuf.Bytes(), &line))
	require.Equal(t, "tier settled", line["msg"])
	require.InDelta(t, 2, line[Tier], 0)
	require.Equal(t, "READY_APPLY", line[Phase])
	require.Equal(t, "tag", line[Kind])
	require.Equal(t, "a_1", line[Name])
}

func Test_SetupDefaultsToInfoLevel(t *testing.T) {
	log := Setup(Options{})
	require.True(t, log.Enabled())
}

func Test_SetupDevelopmentUsesConsoleEncoding(t *testing.T) {
	log := Setup(Options{Development: true})
	require.True(t, log.Enabled())
}

func Test_ParseLevel(t *testing.T) {
	require.Equal(t, zap.DebugLevel, ParseLevel("debug"))
	require.Equal(t, zap.WarnLevel, ParseLevel("warn"))
	require.Equal(t, zap.ErrorLevel, ParseLevel("error"))
	require.Equal(t, zap.InfoLevel, ParseLevel("info"))
	require.Equal(t, zap.InfoLevel, ParseLevel("nonsense"))
}

//// logging utilities for testing below /////

// Testing zapcore.Core implementation to intercept log entries in a buffer by
// choice. Not focused on thread safety, concurrency or reusability.
type fakeCore struct {
	zapcore.LevelEnabler
	enc    zapcore.Encoder
	buffer *bytes.Buffer
}

func (c *fakeCore) With(fields []zapcore.Field) zapcore.Core {
	clone := c.clone()
	for _, f := range fields {
		f.AddTo(clone.enc)
	}
	return clone
}

func (c *fakeCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry { //nolint:gocritic
	if c.Enabled(e.Level) {
		return ce.AddCore(e, c)
	}
	return ce
}

func (c *fakeCore) Write(e zapcore.Entry, fields []zapcore.Field) error { //nolint:gocritic
	for _, f := range fields {
		f.AddTo(c.enc)
	}
	buf, err := c.enc.EncodeEntry(e, fields)
	if err != nil {
		return err
	}
	_, err = c.buffer.Write(buf.Bytes())
	return err
}

func (c *fakeCore) Sync() error {
	return nil
}

func (c *fakeCore) clone() *fakeCore {
	return &fakeCore{
		LevelEnabler: c.LevelEnabler,
		enc:          c.enc.Clone(),
		buffer:       c.buffer,
	}
}
