package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"stockfeed/internal/feed"
	"stockfeed/internal/model"
	"stockfeed/internal/observability"
	"stockfeed/internal/runlock"
)

var ErrRunInProgress = errors.New("ingest: another run is in progress")

const (
	lockName       = "ingest"
	defaultLockTTL = 15 * time.Minute
)

type Downloader interface {
	Download(ctx context.Context, path string) (int64, error)
}

type ProductWriter interface {
	InsertMany(ctx context.Context, products []model.ProductVariant) (int64, error)
}

type RunRecorder interface {
	Start(ctx context.Context, kind model.RunKind) (model.ImportRun, error)
	Finish(ctx context.Context, run model.ImportRun) error
}

// Service runs the two ingestion steps. Download refreshes the local CSV and
// JSON snapshots; Import loads the JSON snapshot into the store. Both steps
// share one lock so they never work on the snapshot files at the same time.
type Service struct {
	Fetcher      Downloader
	Products     ProductWriter
	Runs         RunRecorder
	Lock         runlock.Locker
	LockTTL      time.Duration
	Projector    *feed.Projector
	Charset      encoding.Encoding
	CSVPath      string
	SnapshotPath string
	Logger       *zap.Logger
}

type DownloadResult struct {
	RunID        string
	FilePath     string
	SnapshotPath string
	Bytes        int64
	Stats        feed.Stats
}

type ImportResult struct {
	RunID    string
	Total    int
	Inserted int64
}

// Download fetches the feed, filters it and rewrites the JSON snapshot.
func (s *Service) Download(ctx context.Context) (DownloadResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return DownloadResult{}, err
	}
	defer release()
	return s.download(ctx)
}

// Import inserts the current JSON snapshot into the store.
func (s *Service) Import(ctx context.Context) (ImportResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return ImportResult{}, err
	}
	defer release()
	return s.importSnapshot(ctx)
}

// Sync runs Download then Import under a single lock.
func (s *Service) Sync(ctx context.Context) (DownloadResult, ImportResult, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return DownloadResult{}, ImportResult{}, err
	}
	defer release()

	dl, err := s.download(ctx)
	if err != nil {
		return dl, ImportResult{}, err
	}
	im, err := s.importSnapshot(ctx)
	return dl, im, err
}

func (s *Service) download(ctx context.Context) (DownloadResult, error) {
	run := s.startRun(ctx, model.RunDownload)
	res := DownloadResult{RunID: run.ID, FilePath: s.CSVPath, SnapshotPath: s.SnapshotPath}

	err := func() error {
		n, err := s.Fetcher.Download(ctx, s.CSVPath)
		if err != nil {
			return fmt.Errorf("download feed: %w", err)
		}
		res.Bytes = n

		f, err := os.Open(s.CSVPath)
		if err != nil {
			return fmt.Errorf("open feed: %w", err)
		}
		defer f.Close()

		products, stats, err := feed.Extract(ctx, f, s.Charset, s.projector(), s.logger())
		res.Stats = stats
		if err != nil {
			return fmt.Errorf("extract feed: %w", err)
		}

		if err := feed.WriteSnapshot(s.SnapshotPath, products); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		return nil
	}()

	run.RowsRead = res.Stats.RowsRead
	run.RowsKept = res.Stats.RowsKept
	s.finishRun(ctx, run, err)
	return res, err
}

func (s *Service) importSnapshot(ctx context.Context) (ImportResult, error) {
	run := s.startRun(ctx, model.RunImport)
	res := ImportResult{RunID: run.ID}

	err := func() error {
		products, err := feed.ReadSnapshot(s.SnapshotPath)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		res.Total = len(products)

		n, err := s.Products.InsertMany(ctx, products)
		if err != nil {
			return fmt.Errorf("insert products: %w", err)
		}
		res.Inserted = n
		observability.ProductsInsertedTotal.Add(float64(n))
		return nil
	}()

	run.RowsKept = res.Total
	run.RowsInserted = res.Inserted
	s.finishRun(ctx, run, err)
	if err == nil {
		s.logger().Info("snapshot imported",
			zap.String("run_id", run.ID),
			zap.Int("rows", res.Total),
			zap.Int64("inserted", res.Inserted),
		)
	}
	return res, err
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	if s.Lock == nil {
		return func() {}, nil
	}
	ttl := s.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}

	release, err := s.Lock.Acquire(ctx, lockName, ttl)
	if errors.Is(err, runlock.ErrLocked) {
		return nil, ErrRunInProgress
	}
	if err != nil {
		return nil, err
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger().Warn("failed to release ingest lock", zap.Error(err))
		}
	}, nil
}

func (s *Service) startRun(ctx context.Context, kind model.RunKind) model.ImportRun {
	if s.Runs != nil {
		run, err := s.Runs.Start(ctx, kind)
		if err == nil {
			return run
		}
		s.logger().Warn("failed to record run start", zap.String("kind", string(kind)), zap.Error(err))
	}
	return model.ImportRun{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    model.RunRunning,
		StartedAt: time.Now().UTC(),
	}
}

func (s *Service) finishRun(ctx context.Context, run model.ImportRun, runErr error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	run.Status = model.RunSucceeded
	if runErr != nil {
		run.Status = model.RunFailed
		run.Error = runErr.Error()
		s.logger().Error("ingest run failed",
			zap.String("run_id", run.ID),
			zap.String("kind", string(run.Kind)),
			zap.Error(runErr),
		)
	}
	observability.RunsTotal.WithLabelValues(string(run.Kind), string(run.Status)).Inc()

	if s.Runs == nil {
		return
	}
	if err := s.Runs.Finish(context.WithoutCancel(ctx), run); err != nil {
		s.logger().Warn("failed to record run result", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func (s *Service) projector() *feed.Projector {
	if s.Projector != nil {
		return s.Projector
	}
	return feed.NewProjector(nil, s.logger())
}

func (s *Service) logger() *zap.Logger {
	return observability.OrNop(s.Logger)
}
