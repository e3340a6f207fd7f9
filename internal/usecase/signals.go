package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SmartSignal/internal/domain/models"
	domrepo "SmartSignal/internal/domain/repository"
	domsvc "SmartSignal/internal/domain/service"
	"SmartSignal/internal/services/engine"
	"SmartSignal/pkg/logger"
	"SmartSignal/pkg/util"

	"github.com/google/uuid"
)

// ErrAsyncDisabled is returned by Submit when no request transport is wired.
var ErrAsyncDisabled = errors.New("async generation is not enabled")

// SignalsConfig tunes generation and scanning.
type SignalsConfig struct {
	Interval        domrepo.Interval
	KlineLimit      int
	ScanMaxSymbols  int
	ScanConcurrency int
	ScanTimeout     time.Duration
}

// SignalsUseCase runs the engine over live market data and manages the
// resulting records.
type SignalsUseCase struct {
	loader    *SnapshotLoader
	engine    *engine.Engine
	insight   domsvc.InsightGenerator
	store     domrepo.SignalStore
	archive   domrepo.SignalArchive
	publisher domrepo.Publisher
	requests  domrepo.RequestPublisher
	metrics   domrepo.Metrics
	log       *logger.Logger
	cfg       SignalsConfig

	now   func() time.Time
	seeds func() int64
}

// NewSignalsUseCase wires the use case. archive and publisher may be nil.
func NewSignalsUseCase(
	loader *SnapshotLoader,
	eng *engine.Engine,
	insight domsvc.InsightGenerator,
	store domrepo.SignalStore,
	archive domrepo.SignalArchive,
	publisher domrepo.Publisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
	cfg SignalsConfig,
) *SignalsUseCase {
	if !domrepo.IsValidInterval(cfg.Interval) {
		cfg.Interval = domrepo.DefaultInterval()
	}
	if cfg.KlineLimit <= 0 {
		cfg.KlineLimit = 50
	}
	if cfg.ScanMaxSymbols <= 0 {
		cfg.ScanMaxSymbols = 20
	}
	if cfg.ScanConcurrency <= 0 {
		cfg.ScanConcurrency = 4
	}
	if cfg.ScanTimeout <= 0 {
		cfg.ScanTimeout = 30 * time.Second
	}
	return &SignalsUseCase{
		loader:    loader,
		engine:    eng,
		insight:   insight,
		store:     store,
		archive:   archive,
		publisher: publisher,
		metrics:   metrics,
		log:       log.With(logger.String("component", "signals")),
		cfg:       cfg,
		now:       time.Now,
		seeds:     func() int64 { return time.Now().UnixNano() },
	}
}

// SetRequestPublisher enables Submit.
func (uc *SignalsUseCase) SetRequestPublisher(p domrepo.RequestPublisher) { uc.requests = p }

type GenerateParams struct {
	Symbol   string
	Mode     models.TradingMode
	UserID   string
	Interval domrepo.Interval
	Limit    int
	Seed     *int64
}

// Generate fetches a snapshot, runs the engine and fans the result out to the
// store, archive and event stream. Only fetch and engine failures fail the
// call; side-effect failures are logged.
func (uc *SignalsUseCase) Generate(ctx context.Context, p GenerateParams) (*models.SignalReport, error) {
	start := time.Now()
	symbol := util.NormalizeSymbol(p.Symbol)
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol required", engine.ErrInvalidInput)
	}
	mode := models.ParseMode(string(p.Mode))
	interval := p.Interval
	if !domrepo.IsValidInterval(interval) {
		interval = uc.cfg.Interval
	}
	limit := p.Limit
	if limit <= 0 {
		limit = uc.cfg.KlineLimit
	}
	seed := uc.seeds()
	if p.Seed != nil {
		seed = *p.Seed
	}

	snap, err := uc.loader.Load(ctx, symbol, interval, limit)
	if err != nil {
		return nil, err
	}

	signal, err := uc.engine.Generate(*snap, engine.NewSource(seed))
	if err != nil {
		uc.metrics.RecordError("engine")
		return nil, fmt.Errorf("generate %s: %w", symbol, err)
	}

	report := &models.SignalReport{
		Signal:     signal,
		Mode:       mode,
		Seed:       seed,
		DataSource: snap.Source,
	}
	rr, rrErr := engine.SignalRiskReward(signal)
	if rrErr != nil {
		uc.log.Warn("risk reward unavailable", logger.String("symbol", symbol), logger.Error(rrErr))
	} else {
		report.RiskReward = &rr
	}

	if mode.WantsInsight() && uc.insight != nil {
		in, err := uc.insight.Generate(ctx, signal, rr)
		if err != nil {
			uc.log.Warn("insight failed", logger.String("symbol", symbol), logger.Error(err))
		} else {
			report.Insight = &in
		}
	}

	if p.UserID != "" && uc.store != nil {
		insightText := ""
		if report.Insight != nil {
			insightText = report.Insight.Analysis
		}
		rec := models.NewSignalRecord(p.UserID, signal, insightText, uc.now().UTC())
		if err := uc.store.Save(ctx, &rec); err != nil {
			uc.metrics.RecordError("store_save")
			uc.log.Error("save signal", logger.String("symbol", symbol), logger.String("user_id", p.UserID), logger.Error(err))
		} else {
			report.RecordID = rec.ID
		}
	}

	uc.archiveReport(ctx, report)
	if uc.publisher != nil {
		if err := uc.publisher.Publish(ctx, report); err != nil {
			uc.metrics.RecordError("publish")
			uc.log.Warn("publish signal", logger.String("symbol", symbol), logger.Error(err))
		}
	}

	uc.metrics.RecordSignal(symbol, signal.Confidence)
	uc.metrics.RecordLastPrice(symbol, signal.Price)
	uc.metrics.RecordLatency("generate", time.Since(start).Seconds())
	uc.log.Info("signal generated",
		logger.String("symbol", symbol),
		logger.String("action", string(signal.Action)),
		logger.String("confidence", string(signal.Confidence)),
		logger.Int("confluence", len(signal.ConfluenceFactors)),
		logger.String("mode", string(mode)),
		logger.Int64("seed", seed),
	)
	return report, nil
}

// Submit hands a generation to the async workers and returns the request id
// that travels with it.
func (uc *SignalsUseCase) Submit(ctx context.Context, p GenerateParams) (string, error) {
	if uc.requests == nil {
		return "", ErrAsyncDisabled
	}
	symbol := util.NormalizeSymbol(p.Symbol)
	if symbol == "" {
		return "", fmt.Errorf("%w: symbol required", engine.ErrInvalidInput)
	}
	req := models.SignalRequestEvent{
		RequestID: uuid.NewString(),
		Symbol:    symbol,
		Mode:      string(models.ParseMode(string(p.Mode))),
		UserID:    p.UserID,
		Seed:      p.Seed,
	}
	if err := uc.requests.PublishRequest(ctx, req); err != nil {
		uc.metrics.RecordError("submit")
		return "", err
	}
	uc.log.Debug("signal request submitted", logger.String("symbol", symbol), logger.String("request_id", req.RequestID))
	return req.RequestID, nil
}

func (uc *SignalsUseCase) archiveReport(ctx context.Context, r *models.SignalReport) {
	if uc.archive == nil {
		return
	}
	row := models.ArchivedSignal{
		Timestamp:       r.Signal.Timestamp,
		Symbol:          r.Signal.Symbol,
		Action:          r.Signal.Action,
		Price:           r.Signal.Price,
		Entry:           r.Signal.Entry,
		StopLoss:        r.Signal.StopLoss,
		TakeProfit1:     r.Signal.TakeProfit.TP1,
		Confidence:      r.Signal.Confidence.Level(),
		ConfluenceCount: len(r.Signal.ConfluenceFactors),
		ATR:             r.Signal.ATR,
		Mode:            string(r.Mode),
	}
	if r.RiskReward != nil {
		row.RiskReward = *r.RiskReward
	}
	if err := uc.archive.Append(ctx, row); err != nil {
		uc.metrics.RecordError("archive")
		uc.log.Warn("archive signal", logger.String("symbol", row.Symbol), logger.Error(err))
	}
}

// Scan generates signals for many symbols with bounded concurrency. Reports
// keep the input order; per-symbol failures land in Errors.
func (uc *SignalsUseCase) Scan(ctx context.Context, symbols []string, mode models.TradingMode) (*models.ScanResult, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: no symbols", engine.ErrInvalidInput)
	}
	if len(symbols) > uc.cfg.ScanMaxSymbols {
		return nil, fmt.Errorf("%w: at most %d symbols per scan", engine.ErrInvalidInput, uc.cfg.ScanMaxSymbols)
	}

	ctx, cancel := context.WithTimeout(ctx, uc.cfg.ScanTimeout)
	defer cancel()

	reports := make([]*models.SignalReport, len(symbols))
	errs := make([]error, len(symbols))
	semaphore := make(chan struct{}, uc.cfg.ScanConcurrency)
	var wg sync.WaitGroup

	for i, sym := range symbols {
		wg.Add(1)
		go func(i int, sym string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}
			defer func() { <-semaphore }()

			reports[i], errs[i] = uc.Generate(ctx, GenerateParams{Symbol: sym, Mode: mode})
		}(i, sym)
	}
	wg.Wait()

	res := &models.ScanResult{Reports: make([]models.SignalReport, 0, len(symbols)), Errors: map[string]string{}}
	for i, sym := range symbols {
		if errs[i] != nil {
			res.Errors[sym] = errs[i].Error()
			continue
		}
		res.Reports = append(res.Reports, *reports[i])
	}
	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	return res, nil
}

// List returns records newest first; a filter with a user id lists only that
// user's records.
func (uc *SignalsUseCase) List(ctx context.Context, f models.SignalFilter) ([]*models.SignalRecord, error) {
	if f.UserID != "" {
		return uc.store.ListByUser(ctx, f.UserID, f)
	}
	return uc.store.ListAll(ctx, f)
}

func (uc *SignalsUseCase) Get(ctx context.Context, id string) (*models.SignalRecord, error) {
	return uc.store.Get(ctx, id)
}

func (uc *SignalsUseCase) UpdateStatus(ctx context.Context, id, status string) (*models.SignalRecord, error) {
	st, err := models.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return uc.store.UpdateStatus(ctx, id, st)
}

func (uc *SignalsUseCase) Delete(ctx context.Context, id string) error {
	return uc.store.Delete(ctx, id)
}

// History returns archived rows for symbol, newest first.
func (uc *SignalsUseCase) History(ctx context.Context, symbol string, limit int) ([]models.ArchivedSignal, error) {
	if uc.archive == nil {
		return []models.ArchivedSignal{}, nil
	}
	return uc.archive.Recent(ctx, util.NormalizeSymbol(symbol), limit)
}

// RiskReward computes the ratio for explicit levels.
func (uc *SignalsUseCase) RiskReward(action models.Action, entry, stopLoss, tp1 float64) (float64, error) {
	return engine.RiskReward(action, entry, stopLoss, tp1)
}
