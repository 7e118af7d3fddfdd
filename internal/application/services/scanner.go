package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/bimakw/recipient-scanner/internal/config"
	"github.com/bimakw/recipient-scanner/internal/domain/adapters"
	"github.com/bimakw/recipient-scanner/internal/domain/entities"
	"github.com/bimakw/recipient-scanner/internal/infrastructure/metrics"
)

// ScanTarget describes one wallet/contract history walk
type ScanTarget struct {
	Adapter  adapters.ChainAdapter
	Wallet   entities.Address
	Contract entities.Address
	// MinAmount drops transfers whose value is <= MinAmount (nil keeps everything)
	MinAmount *big.Int
	// Abort stops the scan once closed
	Abort <-chan struct{}
}

// ScanStats summarizes a finished walk
type ScanStats struct {
	Chunks        int
	PartialChunks int
	Pages         int
	FromBlock     uint64
	ToBlock       uint64
	BlocksScanned uint64
	Matched       int
	BelowMinimum  int
	Skipped       int
	Truncated     bool
	Stopped       bool
}

// Scanner walks a chain's transfer history backward from the head
type Scanner struct {
	maxBlocks        uint64
	chunkSize        uint64
	maxChunks        int
	eventsPageSize   int
	maxPagesPerChunk int
	indexedMaxPages  int
	requestDelay     time.Duration
	progressEvery    int
	maxDuration      time.Duration
	metrics          *metrics.ScanMetrics
	logger           *zap.Logger
}

// NewScanner creates a scanner bounded by cfg. indexedMaxPages caps page-following on indexed adapters.
func NewScanner(cfg config.ScannerConfig, indexedMaxPages int, m *metrics.ScanMetrics, logger *zap.Logger) *Scanner {
	s := &Scanner{
		maxBlocks:        cfg.MaxBlocks,
		chunkSize:        cfg.ChunkSize,
		maxChunks:        cfg.MaxChunks,
		eventsPageSize:   cfg.EventsPageSize,
		maxPagesPerChunk: cfg.MaxPagesPerChunk,
		indexedMaxPages:  indexedMaxPages,
		requestDelay:     cfg.RequestDelay,
		progressEvery:    cfg.ProgressEvery,
		maxDuration:      cfg.MaxDuration,
		metrics:          m,
		logger:           logger,
	}
	if s.chunkSize == 0 {
		s.chunkSize = 2000
	}
	if s.maxChunks <= 0 {
		s.maxChunks = 20
	}
	if s.maxPagesPerChunk <= 0 {
		s.maxPagesPerChunk = 50
	}
	if s.indexedMaxPages <= 0 {
		s.indexedMaxPages = 10
	}
	if s.progressEvery <= 0 {
		s.progressEvery = 2
	}
	return s
}

// Scan drives the adapter over the target's history. Every transfer sent by the
// wallet and above the minimum amount is passed to emit; emit returns false to stop.
// Abort, context cancellation and the wall-clock budget end the walk early with
// Truncated set and no error. Adapter failures are returned as-is.
func (s *Scanner) Scan(
	ctx context.Context,
	target ScanTarget,
	report func(message string),
	emit func(entities.Transfer) bool,
) (*ScanStats, error) {
	if report == nil {
		report = func(string) {}
	}

	w := &walk{
		scanner: s,
		target:  target,
		report:  report,
		emit:    emit,
		stats:   &ScanStats{},
	}
	if s.maxDuration > 0 {
		w.deadline = time.Now().Add(s.maxDuration)
	}

	var err error
	if target.Adapter.Indexed() {
		err = w.followPages(ctx)
	} else {
		err = w.walkChunks(ctx)
	}

	chain := target.Adapter.Chain().ID
	s.metrics.AddChunks(chain, w.stats.Chunks)
	s.metrics.AddTransfers(chain, w.stats.Matched)
	s.metrics.AddSkipped(chain, w.stats.Skipped)

	if err != nil {
		return w.stats, err
	}

	s.logger.Debug("Scan finished",
		zap.String("chain", chain),
		zap.String("wallet", target.Wallet.Canonical),
		zap.Int("chunks", w.stats.Chunks),
		zap.Int("pages", w.stats.Pages),
		zap.Int("matched", w.stats.Matched),
		zap.Int("skipped", w.stats.Skipped),
		zap.Bool("truncated", w.stats.Truncated),
	)

	return w.stats, nil
}

type walk struct {
	scanner  *Scanner
	target   ScanTarget
	report   func(string)
	emit     func(entities.Transfer) bool
	stats    *ScanStats
	deadline time.Time
	requests int
}

// followPages pages through an address-indexed source
func (w *walk) followPages(ctx context.Context) error {
	s := w.scanner
	cursor := ""

	for page := 0; page < s.indexedMaxPages; page++ {
		result, err := w.fetch(ctx, adapters.TransferQuery{Cursor: cursor})
		if err != nil || result == nil {
			return err
		}

		w.stats.Pages++
		if !w.process(result) {
			return nil
		}

		if w.stats.Pages%s.progressEvery == 0 {
			w.report(fmt.Sprintf("Fetched %d pages, found %d transfers", w.stats.Pages, w.stats.Matched))
		}

		cursor = result.NextCursor
		if cursor == "" {
			return nil
		}
	}

	if cursor != "" {
		w.stats.Truncated = true
		s.logger.Info("Page budget exhausted",
			zap.String("wallet", w.target.Wallet.Canonical),
			zap.Int("pages", w.stats.Pages),
		)
	}
	return nil
}

// walkChunks scans fixed-size block ranges from the head toward the floor
func (w *walk) walkChunks(ctx context.Context) error {
	s := w.scanner

	if w.shouldStop(ctx) {
		return nil
	}

	head, err := w.target.Adapter.FetchHead(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain head: %w", err)
	}

	var floor uint64
	if s.maxBlocks > 0 && head+1 > s.maxBlocks {
		floor = head - s.maxBlocks + 1
	}

	w.stats.ToBlock = head
	w.stats.FromBlock = head
	to := head

	for chunk := 0; chunk < s.maxChunks; chunk++ {
		from := floor
		if to-floor+1 > s.chunkSize {
			from = to - s.chunkSize + 1
		}

		exhausted, err := w.scanChunk(ctx, from, to)
		if err != nil {
			return err
		}
		if w.stats.Truncated || w.stats.Stopped {
			return nil
		}
		if !exhausted {
			w.stats.PartialChunks++
			s.logger.Warn("Chunk page budget exhausted",
				zap.Uint64("from_block", from),
				zap.Uint64("to_block", to),
				zap.Int("max_pages", s.maxPagesPerChunk),
			)
		}

		w.stats.Chunks++
		w.stats.FromBlock = from
		w.stats.BlocksScanned += to - from + 1

		if w.stats.Chunks%s.progressEvery == 0 {
			w.report(fmt.Sprintf("Scanned %d blocks (%d-%d), found %d transfers",
				w.stats.BlocksScanned, from, head, w.stats.Matched))
		}

		if from <= floor {
			return nil
		}
		to = from - 1
	}

	return nil
}

// scanChunk pages one block range; it reports whether the range was fully read
func (w *walk) scanChunk(ctx context.Context, from, to uint64) (bool, error) {
	cursor := ""
	for page := 0; page < w.scanner.maxPagesPerChunk; page++ {
		result, err := w.fetch(ctx, adapters.TransferQuery{
			FromBlock: from,
			ToBlock:   to,
			Cursor:    cursor,
			PageSize:  w.scanner.eventsPageSize,
		})
		if err != nil {
			return false, fmt.Errorf("failed to scan blocks %d-%d: %w", from, to, err)
		}
		if result == nil {
			return false, nil
		}

		w.stats.Pages++
		if !w.process(result) {
			return false, nil
		}

		cursor = result.NextCursor
		if cursor == "" {
			return true, nil
		}
	}
	return false, nil
}

// fetch issues one paged request after the inter-request delay.
// A nil page with nil error means the walk must stop.
func (w *walk) fetch(ctx context.Context, query adapters.TransferQuery) (*adapters.TransferPage, error) {
	if w.requests > 0 && !w.sleep(ctx) {
		w.stats.Truncated = true
		return nil, nil
	}
	if w.shouldStop(ctx) {
		return nil, nil
	}
	w.requests++

	query.Wallet = w.target.Wallet
	query.Contract = w.target.Contract

	page, err := w.target.Adapter.FetchOutgoingTransfers(ctx, query)
	if err != nil {
		if ctx.Err() != nil || w.aborted() {
			w.stats.Truncated = true
			return nil, nil
		}
		return nil, err
	}
	return page, nil
}

// process filters a page and hands matches to emit; false stops the walk
func (w *walk) process(page *adapters.TransferPage) bool {
	w.stats.Skipped += page.Skipped

	for _, t := range page.Transfers {
		if t.From != w.target.Wallet.Canonical {
			continue
		}
		if threshold := w.target.MinAmount; threshold != nil && (t.Value == nil || t.Value.Cmp(threshold) <= 0) {
			w.stats.BelowMinimum++
			continue
		}

		w.stats.Matched++
		if !w.emit(t) {
			w.stats.Stopped = true
			return false
		}
	}
	return true
}

func (w *walk) shouldStop(ctx context.Context) bool {
	stop := w.aborted() || ctx.Err() != nil
	if !stop && !w.deadline.IsZero() && time.Now().After(w.deadline) {
		w.scanner.logger.Info("Scan wall-clock budget reached",
			zap.String("wallet", w.target.Wallet.Canonical),
			zap.Duration("max_duration", w.scanner.maxDuration),
		)
		stop = true
	}
	if stop {
		w.stats.Truncated = true
	}
	return stop
}

func (w *walk) aborted() bool {
	if w.target.Abort == nil {
		return false
	}
	select {
	case <-w.target.Abort:
		return true
	default:
		return false
	}
}

// sleep waits the inter-request delay; false means the wait was interrupted
func (w *walk) sleep(ctx context.Context) bool {
	if w.scanner.requestDelay <= 0 {
		return true
	}
	timer := time.NewTimer(w.scanner.requestDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	case <-w.target.Abort:
		return false
	}
}
