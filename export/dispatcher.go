package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/eugene-nechvoloda/meetyai/insight"
	"github.com/eugene-nechvoloda/meetyai/secrets"
	"github.com/eugene-nechvoloda/meetyai/store"
)

// Dispatcher routes insights to configured destinations. Credentials are
// decrypted per call and discarded; a failure against one destination
// surfaces as that call's error without affecting others.
type Dispatcher struct {
	store    *store.Store
	box      *secrets.Box
	judge    *Judge
	registry *Registry
	logger   *slog.Logger

	now func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithRegistry replaces the default adapter registry.
func WithRegistry(r *Registry) DispatcherOption {
	return func(d *Dispatcher) { d.registry = r }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = logger }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) DispatcherOption {
	return func(d *Dispatcher) { d.now = now }
}

// NewDispatcher creates a Dispatcher over the given store, credential box,
// and duplicate judge.
func NewDispatcher(st *store.Store, box *secrets.Box, judge *Judge, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		store:    st,
		box:      box,
		judge:    judge,
		registry: NewRegistry(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Export sends one insight to one configured destination.
//
// Existing destination records are fetched best-effort: on fetch failure
// the export proceeds without duplicate checking. A duplicate verdict
// yields Skipped=true with no record created and no counter bump.
func (d *Dispatcher) Export(ctx context.Context, insightID, configID string) (Result, error) {
	ins, err := d.store.GetInsight(ctx, insightID)
	if err != nil {
		return Result{}, fmt.Errorf("load insight %s: %w", insightID, err)
	}

	cfg, err := d.store.GetExportConfig(ctx, configID)
	if err != nil {
		return Result{}, fmt.Errorf("load export config %s: %w", configID, err)
	}
	if !cfg.Enabled {
		return Result{}, fmt.Errorf("export config %s: %w", configID, ErrConfigDisabled)
	}

	tr, err := d.store.GetTranscript(ctx, ins.TranscriptID)
	if err != nil {
		return Result{}, fmt.Errorf("load transcript %s: %w", ins.TranscriptID, err)
	}

	provider, err := d.buildProvider(cfg)
	if err != nil {
		return Result{}, err
	}

	payload := MapFields(ins, tr.Title, cfg.FieldMapping)

	records, err := provider.FetchExistingRecords(ctx)
	if err != nil {
		d.logger.Warn("could not fetch existing records, proceeding with export",
			"provider", cfg.Provider, "config_id", configID, "error", err)
		records = nil
	}

	if len(records) > 0 {
		verdict := d.judge.Check(ctx, payload, records)
		if verdict.IsDuplicate {
			d.logger.Info("export skipped, duplicate found",
				"insight_id", insightID, "config_id", configID,
				"matched_record_id", verdict.MatchedRecordID)
			return Result{
				Success:     true,
				Skipped:     true,
				RecordID:    verdict.MatchedRecordID,
				Explanation: verdict.Explanation,
			}, nil
		}
	}

	recordID, err := provider.CreateRecord(ctx, payload)
	if err != nil {
		if serr := d.store.SetInsightStatus(ctx, insightID, insight.StatusExportFailed); serr != nil {
			d.logger.Warn("record export failure status", "insight_id", insightID, "error", serr)
		}
		return Result{}, fmt.Errorf("create record via %s: %w", cfg.Provider, err)
	}

	at := d.now().UTC()
	dest := insight.Destination{ConfigID: configID, RecordID: recordID, ExportedAt: at}
	if err := d.store.MarkInsightExported(ctx, insightID, cfg.Provider, dest); err != nil {
		return Result{}, fmt.Errorf("mark insight exported: %w", err)
	}
	if err := d.store.RecordExport(ctx, configID, at); err != nil {
		return Result{}, fmt.Errorf("record export usage: %w", err)
	}

	d.logger.Info("insight exported",
		"insight_id", insightID, "config_id", configID,
		"provider", cfg.Provider, "record_id", recordID)

	return Result{Success: true, RecordID: recordID}, nil
}

// TestConnection verifies a configuration's credential and destination
// identifiers without writing anything.
func (d *Dispatcher) TestConnection(ctx context.Context, configID string) error {
	cfg, err := d.store.GetExportConfig(ctx, configID)
	if err != nil {
		return fmt.Errorf("load export config %s: %w", configID, err)
	}
	provider, err := d.buildProvider(cfg)
	if err != nil {
		return err
	}
	return provider.TestConnection(ctx)
}

// Fields lists the destination fields available for mapping.
func (d *Dispatcher) Fields(ctx context.Context, configID string) ([]Field, error) {
	cfg, err := d.store.GetExportConfig(ctx, configID)
	if err != nil {
		return nil, fmt.Errorf("load export config %s: %w", configID, err)
	}
	provider, err := d.buildProvider(cfg)
	if err != nil {
		return nil, err
	}
	return provider.FetchFields(ctx)
}

func (d *Dispatcher) buildProvider(cfg *store.ExportConfig) (Provider, error) {
	creds, err := d.decrypt(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := d.registry.Provider(cfg.Provider, creds, *cfg)
	if err != nil {
		return nil, err
	}
	return provider, nil
}

func (d *Dispatcher) decrypt(cfg *store.ExportConfig) (Credentials, error) {
	apiKey, err := d.box.Decrypt(cfg.APIKeyEncrypted)
	if err != nil {
		return Credentials{}, fmt.Errorf("decrypt credential for config %s: %w", cfg.ID, err)
	}
	creds := Credentials{APIKey: apiKey}
	if cfg.APISecretEncrypted != "" {
		secret, err := d.box.Decrypt(cfg.APISecretEncrypted)
		if err != nil {
			return Credentials{}, fmt.Errorf("decrypt secret for config %s: %w", cfg.ID, err)
		}
		creds.APISecret = secret
	}
	return creds, nil
}
