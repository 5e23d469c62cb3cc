package main

import (
	"context"
	"os"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/Bemerick/AI-SAM-Research/internal/store"
	"github.com/Bemerick/AI-SAM-Research/pkg/anthropic"
	"github.com/Bemerick/AI-SAM-Research/pkg/govwin"
	"github.com/Bemerick/AI-SAM-Research/pkg/notion"
	"github.com/Bemerick/AI-SAM-Research/pkg/sam"
	sfpkg "github.com/Bemerick/AI-SAM-Research/pkg/salesforce"
)

func initStore(ctx context.Context) (store.Store, error) {
	return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
}

func initSAM() sam.Client {
	var opts []sam.Option
	if cfg.SAM.BaseURL != "" {
		opts = append(opts, sam.WithBaseURL(cfg.SAM.BaseURL))
	}
	return sam.NewClient(cfg.SAM.Key, opts...)
}

func initGovWin() govwin.Client {
	var opts []govwin.Option
	if cfg.GovWin.BaseURL != "" {
		opts = append(opts, govwin.WithBaseURL(cfg.GovWin.BaseURL))
	}
	if cfg.GovWin.RequestsPerSec > 0 {
		opts = append(opts, govwin.WithRateLimit(cfg.GovWin.RequestsPerSec, int(cfg.GovWin.RequestsPerSec)*2))
	}
	return govwin.NewClient(govwin.Credentials{
		ClientID:     cfg.GovWin.ClientID,
		ClientSecret: cfg.GovWin.ClientSecret,
		Username:     cfg.GovWin.Username,
		Password:     cfg.GovWin.Password,
	}, opts...)
}

func initOracle() anthropic.Client {
	return anthropic.NewClient(cfg.Anthropic.Key)
}

func initNotion() notion.Client {
	return notion.NewClient(cfg.Notion.Token)
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (SAMRESEARCH_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}
