// Package sync drives one state's seller synchronization: fetch the
// state listing, enrich rows from the single-seller source, normalize,
// merge duplicates, and persist each merged record.
package sync

import (
	"context"
	"fmt"
	"strings"

	"sellersync/internal/config"
	"sellersync/internal/fetch"
	"sellersync/internal/logger"
	"sellersync/internal/normalize"
	"sellersync/internal/states"
)

// SellerStore persists one canonical record; implemented by the
// reconciler.
type SellerStore interface {
	Upsert(ctx context.Context, rec *normalize.Seller, stateCode, stateName, stateSlug string) (string, error)
}

type Orchestrator struct {
	stateSource  string
	sellerSource string
	fetcher      *fetch.Fetcher
	store        SellerStore
	logger       *logger.Logger
	hooks        []normalize.Hook
}

func NewOrchestrator(cfg *config.Config, fetcher *fetch.Fetcher, store SellerStore, log *logger.Logger, hooks ...normalize.Hook) *Orchestrator {
	return &Orchestrator{
		stateSource:  cfg.StateSourceURL,
		sellerSource: cfg.SellerSourceURL,
		fetcher:      fetcher,
		store:        store,
		logger:       log,
		hooks:        hooks,
	}
}

// SyncState runs one state's sync end to end. A returned error covers
// only this state; the caller isolates it from other state jobs.
func (o *Orchestrator) SyncState(ctx context.Context, stateCode string) error {
	stateCode = strings.ToUpper(strings.TrimSpace(stateCode))
	if stateCode == "" {
		return fmt.Errorf("empty state code")
	}

	if o.stateSource == "" {
		o.logger.Error("state sync aborted: state endpoint not configured (state=%s)", stateCode)
		return fmt.Errorf("state source URL not configured")
	}

	stateName, stateSlug := states.Resolve(stateCode)
	o.logger.Debug("state job start: %s", stateCode)

	rows := o.fetcher.StateSellers(ctx, o.stateSource, stateCode)
	o.logger.Debug("fetched state %s: %d rows", stateCode, len(rows))

	acc := normalize.NewAccumulator()

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("state %s canceled: %w", stateCode, err)
		}

		// Fill missing state fields so the raw payload stays
		// consistent with the job context.
		if empty(row["state"]) {
			row["state"] = stateCode
		}
		if empty(row["state_code"]) {
			row["state_code"] = stateCode
		}

		if o.sellerSource != "" {
			if identity := rowIdentity(row); identity != "" {
				if detail := o.fetcher.SingleSeller(ctx, o.sellerSource, identity); detail != nil {
					for key, value := range detail {
						row[key] = value
					}
				}
			}
		}

		rec := normalize.Normalize(row, stateCode, o.hooks...)
		if rec == nil {
			o.logger.Debug("skipped record missing required fields (state=%s)", stateCode)
			continue
		}

		acc.Add(rec)
	}

	o.logger.Debug("state merge complete: %s, %d sellers", stateCode, acc.Len())

	for _, rec := range acc.Records() {
		// Merging may have carried state drift from a detail
		// payload; the job context is authoritative.
		rec.ForceState(stateCode, stateName, stateSlug)

		id, err := o.store.Upsert(ctx, rec, stateCode, stateName, stateSlug)
		if err != nil {
			o.logger.Error("upsert failed (state=%s slug=%s): %v", stateCode, rec.Slug, err)
			continue
		}
		o.logger.Debug("upserted seller: state=%s slug=%s id=%s", stateCode, rec.Slug, id)
	}

	o.logger.Debug("state job finished: %s, %d sellers", stateCode, acc.Len())
	return nil
}

// rowIdentity extracts the string used to query the single-seller
// endpoint, preferring the slug over a raw id.
func rowIdentity(row map[string]interface{}) string {
	for _, key := range []string{"slug", "id"} {
		switch v := row[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}

func empty(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
