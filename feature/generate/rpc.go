package generate

import (
	"context"
	"encoding/json"
	"fmt"

	"rcconf-manager/core/events"
)

// RPC subjects served on the event bus.
const (
	SubjectGenerateAll     = "etcd.generation.generate_all"
	SubjectGenerateFile    = "etcd.generation.generate_file"
	SubjectGetManagedFiles = "etcd.generation.get_managed_files"
	SubjectRescanPlugins   = "etcd.management.rescan_plugins"
)

// FileRequest is the body of etcd.generation.generate_file.
type FileRequest struct {
	Name string `json:"name"`
}

// AllResponse is the reply of etcd.generation.generate_all.
type AllResponse struct {
	Generated []Generated `json:"generated"`
	Errors    string      `json:"errors,omitempty"`
}

// RegisterRPC exposes the service on d.
func RegisterRPC(d *events.Dispatcher, s *Service) error {
	methods := map[string]events.Handler{
		SubjectGenerateAll: func(ctx context.Context, _ []byte) (any, error) {
			results, err := s.GenerateAll(ctx)
			resp := AllResponse{Generated: results}
			if err != nil {
				resp.Errors = err.Error()
			}
			return resp, nil
		},
		SubjectGenerateFile: func(ctx context.Context, payload []byte) (any, error) {
			var req FileRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("invalid request: %w", err)
			}
			return s.GenerateFile(ctx, req.Name)
		},
		SubjectGetManagedFiles: func(context.Context, []byte) (any, error) {
			return s.ManagedFiles(), nil
		},
		SubjectRescanPlugins: func(context.Context, []byte) (any, error) {
			if err := s.Rescan(); err != nil {
				return nil, err
			}
			return s.ManagedFiles(), nil
		},
	}

	for subject, h := range methods {
		if err := d.Register(subject, h); err != nil {
			return err
		}
	}
	return d.Flush()
}
