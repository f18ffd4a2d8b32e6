package storage

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
)

func fixedService(dir string) *Service {
	s := New(dir, logger.NewNop())
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.Local) }
	return s
}

func TestSave_WritesTimestampedFile(t *testing.T) {
	dir := t.TempDir()
	s := fixedService(dir)

	path, err := s.Save(context.Background(), []byte("PKdeck"), "pptx")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "generated_presentation_20240309_140507.pptx"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "PKdeck", string(data))
}

func TestSave_CollisionGetsSuffix(t *testing.T) {
	dir := t.TempDir()
	s := fixedService(dir)

	first, err := s.Save(context.Background(), []byte("one"), ".pptx")
	require.NoError(t, err)
	second, err := s.Save(context.Background(), []byte("two"), ".pptx")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Regexp(t, regexp.MustCompile(`generated_presentation_20240309_140507_[0-9a-f]{6}\.pptx$`), second)

	data, err := os.ReadFile(first)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data))
}

func TestSave_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	s := fixedService(dir)

	path, err := s.Save(context.Background(), []byte("PK"), "")
	require.NoError(t, err)
	assert.Equal(t, ".pptx", filepath.Ext(path))
}

func TestSave_UnwritableDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	_, err := fixedService(file).Save(context.Background(), []byte("x"), "pptx")
	assert.True(t, errors.Is(err, errors.ErrCodeStorage))
}

func TestSave_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fixedService(t.TempDir()).Save(ctx, []byte("x"), "pptx")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "Downloads"), expandHome("~/Downloads"))
	assert.Equal(t, filepath.Join(home, "Downloads"), New("~/Downloads", logger.NewNop()).OutputDir())
	assert.Equal(t, "/tmp/out", expandHome("/tmp/out"))
}
