package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"rcconf-manager/core/rcconf"
)

// SourceFunc adapts a function to Source.
type SourceFunc struct {
	Label string
	Fn    func(ctx context.Context) (map[string]string, error)
}

func (s SourceFunc) Name() string {
	return s.Label
}

func (s SourceFunc) Load(ctx context.Context) (map[string]string, error) {
	return s.Fn(ctx)
}

// StaticSource is a fixed mapping.
type StaticSource map[string]string

func (s StaticSource) Name() string {
	return "static"
}

func (s StaticSource) Load(context.Context) (map[string]string, error) {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out, nil
}

// FileSource reads an rc.conf file from disk. A missing file is empty.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string {
	return "file:" + s.Path
}

func (s FileSource) Load(context.Context) (map[string]string, error) {
	doc, err := rcconf.ParseFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.Map(), nil
}

// Exists reports whether the file is present.
func (s FileSource) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}
