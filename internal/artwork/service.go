// Package artwork turns record thumbnails into what a notification needs: an
// accent colour and, for NSFW records, a blurred stand-in image.
package artwork

import (
	"context"
	"sync"
)

// Service fetches a thumbnail once and derives colour and obscured variants
// from it. It remembers the last download so that a record needing both does
// not fetch twice.
type Service struct {
	fetcher *Fetcher
	obscure ObscureOptions

	mu      sync.Mutex
	lastURL string
	last    []byte
}

func NewService(f *Fetcher, opt ObscureOptions) *Service {
	if f == nil {
		f = NewFetcher(FetchConfig{})
	}
	return &Service{fetcher: f, obscure: opt}
}

func (s *Service) image(ctx context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	if url != "" && url == s.lastURL {
		b := s.last
		s.mu.Unlock()
		return b, nil
	}
	s.mu.Unlock()

	b, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.lastURL, s.last = url, b
	s.mu.Unlock()
	return b, nil
}

// Accent returns the dominant colour of the image at url.
func (s *Service) Accent(ctx context.Context, url string) (Color, error) {
	b, err := s.image(ctx, url)
	if err != nil {
		return Black, err
	}
	return DominantColor(b)
}

// Obscured returns a blurred JPEG of the image at url.
func (s *Service) Obscured(ctx context.Context, url string) ([]byte, error) {
	b, err := s.image(ctx, url)
	if err != nil {
		return nil, err
	}
	return Obscure(b, s.obscure)
}
