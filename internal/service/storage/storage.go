package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CHuiV123/slidegen/internal/infra/logger"
	"github.com/CHuiV123/slidegen/pkg/errors"
	"github.com/CHuiV123/slidegen/pkg/util"
)

const filePrefix = "generated_presentation_"

// maxCollisionRetries bounds the suffix attempts when a name is taken.
const maxCollisionRetries = 5

type Service struct {
	outputDir string
	now       func() time.Time
	logger    *logger.Logger
}

// New returns a Service writing under outputDir. A leading "~" is expanded
// to the user's home directory.
func New(outputDir string, log *logger.Logger) *Service {
	return &Service{
		outputDir: expandHome(outputDir),
		now:       time.Now,
		logger:    log.Named("storage"),
	}
}

func (s *Service) OutputDir() string {
	return s.outputDir
}

// Save writes data as generated_presentation_<timestamp>.<ext>. An existing
// file is never overwritten; a random suffix is added instead.
func (s *Service) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to create output directory")
	}

	if ext == "" {
		ext = detectExtension(data)
	}
	ext = strings.TrimPrefix(ext, ".")

	base := filePrefix + util.Timestamp(s.now())
	name := base + "." + ext
	for attempt := 0; ; attempt++ {
		path := filepath.Join(s.outputDir, name)
		err := writeExclusive(path, data)
		if err == nil {
			s.logger.Info("saved presentation", "path", path, "size", len(data))
			return path, nil
		}
		if !os.IsExist(err) || attempt >= maxCollisionRetries {
			return "", errors.Wrap(err, errors.ErrCodeStorage, "failed to write file")
		}
		name = fmt.Sprintf("%s_%s.%s", base, util.RandomString(6), ext)
	}
}

func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

func detectExtension(data []byte) string {
	if len(data) >= 2 && data[0] == 0x50 && data[1] == 0x4B {
		return "pptx"
	}
	return "bin"
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
