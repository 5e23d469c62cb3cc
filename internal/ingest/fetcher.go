package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Bemerick/AI-SAM-Research/internal/config"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
	"github.com/Bemerick/AI-SAM-Research/pkg/sam"
)

// FetcherStore is the store surface the fetcher needs.
type FetcherStore interface {
	LinkerStore
	CreateOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, bool, error)
}

// Result summarizes one fetch run.
type Result struct {
	Fetched    int `json:"fetched"`
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Linked     int `json:"linked"`
	Errors     int `json:"errors"`
}

// Fetcher pulls recent notices from SAM.gov, stores the new ones, and
// threads amendments into version chains.
type Fetcher struct {
	client sam.Client
	store  FetcherStore
	linker *Linker
	cfg    config.SAMConfig
	now    func() time.Time
}

// NewFetcher creates a fetcher.
func NewFetcher(client sam.Client, s FetcherStore, cfg config.SAMConfig) *Fetcher {
	return &Fetcher{
		client: client,
		store:  s,
		linker: NewLinker(s),
		cfg:    cfg,
		now:    time.Now,
	}
}

// Run fetches notices posted inside the configured window for each
// configured NAICS code. A failure on one notice is logged and counted, not
// fatal; the run continues with the rest.
func (f *Fetcher) Run(ctx context.Context) (*Result, error) {
	windowDays := f.cfg.WindowDays
	if windowDays <= 0 {
		windowDays = 2
	}
	now := f.now().UTC()
	postedFrom := now.AddDate(0, 0, -windowDays).Format("01/02/2006")
	postedTo := now.Format("01/02/2006")

	codes := splitCodes(f.cfg.NAICS)
	if len(codes) == 0 {
		return nil, eris.New("ingest: no NAICS codes configured")
	}

	res := &Result{}
	for _, code := range codes {
		select {
		case <-ctx.Done():
			return res, eris.Wrap(ctx.Err(), "ingest: fetch cancelled")
		default:
		}

		raws, err := f.client.SearchOpportunities(ctx, sam.SearchParams{
			PostedFrom: postedFrom,
			PostedTo:   postedTo,
			NAICSCode:  code,
			PTypes:     f.cfg.PTypes,
			Limit:      f.cfg.Limit,
		})
		if err != nil {
			zap.L().Error("feed search failed", zap.String("naics", code), zap.Error(err))
			res.Errors++
			continue
		}
		zap.L().Info("fetched notices", zap.String("naics", code), zap.Int("count", len(raws)))
		res.Fetched += len(raws)

		for _, raw := range raws {
			if err := f.process(ctx, raw, res); err != nil {
				zap.L().Error("notice ingestion failed",
					zap.String("notice_id", raw.NoticeID), zap.Error(err))
				res.Errors++
			}
		}
	}
	return res, nil
}

func (f *Fetcher) process(ctx context.Context, raw sam.RawOpportunity, res *Result) error {
	opp := Normalize(raw)
	if opp.NoticeID == "" {
		return eris.New("ingest: notice missing id")
	}

	// Descriptions live behind a per-notice link. Fetch before insert so a
	// stored row is complete from the start; a description failure is not
	// worth losing the notice over.
	if desc, err := f.client.GetDescription(ctx, raw.Description); err != nil {
		zap.L().Warn("description fetch failed",
			zap.String("notice_id", opp.NoticeID), zap.Error(err))
	} else {
		opp.Description = desc
	}

	stored, created, err := f.store.CreateOpportunity(ctx, &opp)
	if err != nil {
		return err
	}
	if !created {
		res.Duplicates++
		return nil
	}
	res.Created++

	if err := f.linker.Link(ctx, stored); err != nil {
		return err
	}
	if stored.SolicitationNumber != "" {
		res.Linked++
	}
	return nil
}

func splitCodes(csv string) []string {
	var codes []string
	for _, c := range strings.Split(csv, ",") {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}
