package defaults

import (
	"rcconf-manager/core/rcconf"

	"go.uber.org/zap"
)

// Service serves the shipped defaults.
type Service struct {
	doc    *rcconf.Document
	logger *zap.Logger
}

// NewService parses the embedded defaults once.
func NewService(logger *zap.Logger) (*Service, error) {
	doc, err := Load()
	if err != nil {
		return nil, err
	}
	return &Service{doc: doc, logger: logger}, nil
}

// Document returns a copy of the parsed defaults.
func (s *Service) Document() *rcconf.Document {
	return s.doc.Clone()
}

// Values returns the defaults mapping.
func (s *Service) Values() map[string]string {
	return s.doc.Map()
}

// Value returns the default of a single key.
func (s *Service) Value(key string) (string, bool) {
	return s.doc.Get(key)
}
