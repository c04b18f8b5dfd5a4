/*
Package portfolio retrieves a set of images from a remote location for a client to browse.

Sources are pluggable (SFTP with client-supplied credentials, or the server's S3 bucket).
Every failure degrades to an empty result: callers never see an error.
*/
package portfolio

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pairrelay/internal/pkg/logx"
)

const (
	// SourceSFTP fetches from an SFTP server using the request's connection parameters.
	SourceSFTP = "sftp"

	// SourceS3 fetches from the configured S3 bucket, using Directory as the key prefix.
	SourceS3 = "s3"
)

// Request carries the connection parameters of one fetch.
type Request struct {
	Source    string `json:"source,omitempty"`
	Host      string `json:"host,omitempty"`
	Port      int    `json:"port,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`
	Directory string `json:"directory"`
}

// Source is a backend able to list and download images.
type Source interface {
	Fetch(ctx context.Context, req Request) ([]Item, error)
}

// Service dispatches fetch requests to the registered sources.
type Service struct {
	sources map[string]Source
	timeout time.Duration
	logger  zerolog.Logger
}

// NewService creates a Service whose fetches are bounded by timeout.
func NewService(timeout time.Duration) *Service {
	return &Service{
		sources: make(map[string]Source),
		timeout: timeout,
		logger:  logx.Component("Portfolio"),
	}
}

// Register makes src available under name. It must be called before the service is shared.
func (s *Service) Register(name string, src Source) {
	s.sources[name] = src
}

// Fetch runs one retrieval. It blocks, so callers run it off their event loop.
// Unknown sources, connection failures, and timeouts all yield an empty list.
func (s *Service) Fetch(ctx context.Context, req Request) []Item {
	name := req.Source
	if name == "" {
		name = SourceSFTP
	}

	src, ok := s.sources[name]
	if !ok {
		s.logger.Warn().Str("source", name).Msg("Portfolio source not configured, returning empty result.")
		return []Item{}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	items, err := src.Fetch(ctx, req)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("source", name).
			Str("host", req.Host).
			Str("directory", req.Directory).
			Msg("Portfolio fetch failed, returning empty result.")
		return []Item{}
	}

	if items == nil {
		items = []Item{}
	}

	s.logger.Info().
		Str("source", name).
		Int("items", len(items)).
		Dur("latency", time.Since(started)).
		Msg("Portfolio fetch completed.")

	return items
}
