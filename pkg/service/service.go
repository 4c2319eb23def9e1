package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/neuroplastio/hidpreparse/internal/cache"
	"github.com/neuroplastio/hidpreparse/internal/configsvc"
	"github.com/neuroplastio/hidpreparse/pkg/usbhid/hidparse"
)

// Service wires together the ambient stack a long-running hidpreparse
// process needs: structured logging, a preparsed-data cache, and a
// config-file watcher, on top of the stateless hidparse package.
type Service struct {
	config Config
	log    *zap.Logger

	configSvc *configsvc.Service
	cache     *cache.Cache
}

func New(config Config) (*Service, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	c, err := cache.Open(filepath.Join(config.DataDir, "cache"), logger.Named("cache"))
	if err != nil {
		return nil, err
	}

	return &Service{
		config:    config,
		log:       logger,
		configSvc: configsvc.New(logger.Named("watch")),
		cache:     c,
	}, nil
}

func (s *Service) Close() error {
	return s.cache.Close()
}

// CacheStats reports cumulative preparsed-data cache activity.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Run starts the config watcher and blocks until ctx is cancelled. It is
// only needed by the "watch" command; one-shot decode/describe commands
// never call it.
func (s *Service) Run(ctx context.Context) error {
	if s.config.WatchDir == "" {
		return fmt.Errorf("watch dir is not configured")
	}
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return s.configSvc.Start(groupCtx)
	})
	group.Go(func() error {
		<-s.configSvc.Ready()
		return s.watchDescriptors(groupCtx)
	})
	if err := group.Wait(); err != nil {
		return fmt.Errorf("service failed: %w", err)
	}
	return nil
}

func (s *Service) watchDescriptors(ctx context.Context) error {
	entries, err := os.ReadDir(s.config.WatchDir)
	if err != nil {
		return fmt.Errorf("failed to read watch dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		s.describeFile(filepath.Join(s.config.WatchDir, e.Name()))
	}

	err = s.configSvc.WatchDir(s.config.WatchDir, func(event fsnotify.Event) {
		if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
			s.describeFile(event.Name)
		}
	})
	if err != nil {
		s.log.Warn("not watching for new descriptor files", zap.Error(err))
	}

	<-ctx.Done()
	return nil
}

func (s *Service) describeFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.log.Warn("failed to read descriptor", zap.String("path", path), zap.Error(err))
		return
	}
	desc, err := s.Describe(data)
	if err != nil {
		s.log.Warn("failed to parse descriptor", zap.String("path", path), zap.Error(err))
		return
	}
	s.log.Info("parsed descriptor",
		zap.String("path", path),
		zap.Int("collections", desc.NumCollectionCaps),
		zap.Int("input_reports", len(desc.InputReportLengths)),
	)
}

// Parse parses a raw report descriptor, consulting the cache first.
func (s *Service) Parse(raw []byte) (*hidparse.PreparsedData, error) {
	digest := cache.Digest(raw)
	if blob, ok := s.cache.Get(digest); ok {
		return hidparse.FromBytes(blob)
	}
	data, err := hidparse.ParseDescriptor(raw)
	if err != nil {
		return nil, err
	}
	for _, w := range data.Warnings() {
		s.log.Warn("descriptor parsed with warnings", zap.Error(w))
	}
	if err := s.cache.Put(digest, data.Bytes()); err != nil {
		s.log.Warn("failed to persist parsed descriptor", zap.Error(err))
	}
	return data, nil
}

// Describe parses raw and summarizes it in one call.
func (s *Service) Describe(raw []byte) (*hidparse.DeviceDescription, error) {
	data, err := s.Parse(raw)
	if err != nil {
		return nil, err
	}
	return hidparse.GetCollectionDescription(data)
}

// BatchDescribe parses many descriptors concurrently, preserving the
// input order in its result slice. A failure on one descriptor does not
// prevent the others from completing.
func (s *Service) BatchDescribe(ctx context.Context, raws [][]byte) ([]*hidparse.DeviceDescription, error) {
	results := make([]*hidparse.DeviceDescription, len(raws))
	group, _ := errgroup.WithContext(ctx)
	for i, raw := range raws {
		i, raw := i, raw
		group.Go(func() error {
			desc, err := s.Describe(raw)
			if err != nil {
				return fmt.Errorf("descriptor %d: %w", i, err)
			}
			results[i] = desc
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
