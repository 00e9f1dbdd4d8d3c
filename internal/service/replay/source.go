package replay

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"yolonode/internal/model"

	"github.com/pkg/errors"
)

// Source yields recorded frames in order.
type Source interface {
	Each(ctx context.Context, fn func(frame *model.Frame) error) error
}

var imageFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".bmp":  "bmp",
}

// DirSource replays the images of a directory in file name order. Each
// frame gets seq = index and frame_id = file name.
type DirSource struct {
	dir string
}

// NewDirSource creates a source over the images in dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// Each calls fn for every image until fn fails or ctx is cancelled.
func (s *DirSource) Each(ctx context.Context, fn func(frame *model.Frame) error) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return errors.Wrapf(err, "failed to read image directory %s", s.dir)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := imageFormats[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := filepath.Join(s.dir, name)
		info, err := os.Stat(path)
		if err != nil {
			return errors.Wrapf(err, "failed to stat %s", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "failed to read %s", path)
		}

		frame := &model.Frame{
			Header: model.Header{
				Seq:     uint32(i),
				Stamp:   model.NewStamp(info.ModTime()),
				FrameID: name,
			},
			Format: imageFormats[strings.ToLower(filepath.Ext(name))],
			Data:   data,
		}
		if err := fn(frame); err != nil {
			return err
		}
	}
	return nil
}
