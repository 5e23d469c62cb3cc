package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/Bemerick/AI-SAM-Research/internal/db"
	"github.com/Bemerick/AI-SAM-Research/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used in tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id                      TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	notice_id               TEXT NOT NULL UNIQUE,
	title                   TEXT NOT NULL,
	department              TEXT,
	sub_tier                TEXT,
	office                  TEXT,
	full_parent_path        TEXT,
	naics_code              TEXT,
	solicitation_number     TEXT,
	posted_date             TEXT,
	response_deadline       TEXT,
	notice_type             TEXT,
	set_aside               TEXT,
	description             TEXT,
	sam_link                TEXT,
	fit_score               DOUBLE PRECISION NOT NULL DEFAULT 0,
	assigned_practice_area  TEXT,
	justification           TEXT,
	is_amendment            INTEGER NOT NULL DEFAULT 0,
	original_notice_id      TEXT,
	superseded_by_notice_id TEXT,
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_fit_score ON opportunities(fit_score DESC);
CREATE INDEX IF NOT EXISTS idx_opportunities_solicitation ON opportunities(solicitation_number);
CREATE INDEX IF NOT EXISTS idx_opportunities_posted_date ON opportunities(posted_date);

CREATE TABLE IF NOT EXISTS govwin_opportunities (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	govwin_id  TEXT NOT NULL UNIQUE,
	title      TEXT,
	raw_data   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS govwin_contracts (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	govwin_opportunity_id TEXT NOT NULL REFERENCES govwin_opportunities(id),
	contract_id           TEXT,
	contract_number       TEXT,
	title                 TEXT,
	vendor_name           TEXT,
	vendor_id             TEXT,
	contract_value        DOUBLE PRECISION,
	award_date            TEXT,
	start_date            TEXT,
	end_date              TEXT,
	status                TEXT,
	raw_data              JSONB,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (govwin_opportunity_id, contract_id)
);

CREATE TABLE IF NOT EXISTS opportunity_matches (
	id                    TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	sam_opportunity_id    TEXT NOT NULL REFERENCES opportunities(id),
	govwin_opportunity_id TEXT NOT NULL REFERENCES govwin_opportunities(id),
	search_strategy       TEXT,
	match_type            TEXT,
	ai_match_score        DOUBLE PRECISION NOT NULL DEFAULT 0,
	ai_reasoning          TEXT,
	status                TEXT NOT NULL DEFAULT 'pending_review',
	user_notes            TEXT,
	reviewed_by           TEXT,
	reviewed_at           TIMESTAMPTZ,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (sam_opportunity_id, govwin_opportunity_id)
);

CREATE INDEX IF NOT EXISTS idx_matches_status ON opportunity_matches(status);
CREATE INDEX IF NOT EXISTS idx_matches_sam_opp ON opportunity_matches(sam_opportunity_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const opportunityColumns = `id, notice_id, title, department, sub_tier, office, full_parent_path,
	naics_code, solicitation_number, posted_date, response_deadline, notice_type, set_aside,
	description, sam_link, fit_score, assigned_practice_area, justification,
	is_amendment, original_notice_id, superseded_by_notice_id, created_at, updated_at`

func scanOpportunity(row pgx.Row) (*model.Opportunity, error) {
	var o model.Opportunity
	var department, subTier, office, parentPath, naics, solicitation *string
	var posted, deadline, noticeType, setAside, description, samLink *string
	var practiceArea, justification *string

	err := row.Scan(&o.ID, &o.NoticeID, &o.Title, &department, &subTier, &office, &parentPath,
		&naics, &solicitation, &posted, &deadline, &noticeType, &setAside,
		&description, &samLink, &o.FitScore, &practiceArea, &justification,
		&o.IsAmendment, &o.OriginalNoticeID, &o.SupersededBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}

	assign := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	assign(&o.Department, department)
	assign(&o.SubTier, subTier)
	assign(&o.Office, office)
	assign(&o.FullParentPath, parentPath)
	assign(&o.NAICSCode, naics)
	assign(&o.SolicitationNumber, solicitation)
	assign(&o.PostedDate, posted)
	assign(&o.ResponseDeadline, deadline)
	assign(&o.Type, noticeType)
	assign(&o.SetAside, setAside)
	assign(&o.Description, description)
	assign(&o.SAMLink, samLink)
	assign(&o.AssignedPracticeArea, practiceArea)
	assign(&o.Justification, justification)
	return &o, nil
}

// CreateOpportunity inserts a notice if it is not already stored. The bool
// result reports whether a new row was created; when false the stored row is
// returned unchanged.
func (s *PostgresStore) CreateOpportunity(ctx context.Context, opp *model.Opportunity) (*model.Opportunity, bool, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO opportunities (id, notice_id, title, department, sub_tier, office, full_parent_path,
			naics_code, solicitation_number, posted_date, response_deadline, notice_type, set_aside,
			description, sam_link, fit_score, is_amendment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		 ON CONFLICT (notice_id) DO NOTHING`,
		id, opp.NoticeID, opp.Title, opp.Department, opp.SubTier, opp.Office, opp.FullParentPath,
		opp.NAICSCode, opp.SolicitationNumber, opp.PostedDate, opp.ResponseDeadline, opp.Type, opp.SetAside,
		opp.Description, opp.SAMLink, opp.FitScore, opp.IsAmendment, now, now,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: insert opportunity %s", opp.NoticeID)
	}

	stored, err := s.GetOpportunity(ctx, opp.NoticeID)
	if err != nil {
		return nil, false, err
	}
	return stored, tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetOpportunity(ctx context.Context, noticeID string) (*model.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE notice_id = $1`, noticeID)
	o, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get opportunity %s", noticeID)
	}
	return o, nil
}

func (s *PostgresStore) GetOpportunityByID(ctx context.Context, id string) (*model.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE id = $1`, id)
	o, err := scanOpportunity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get opportunity by id %s", id)
	}
	return o, nil
}

func (s *PostgresStore) ListUnscored(ctx context.Context, limit int) ([]model.Opportunity, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		 WHERE fit_score = 0 ORDER BY created_at ASC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unscored")
	}
	return collectOpportunities(rows, "list unscored")
}

func (s *PostgresStore) UpdateScore(ctx context.Context, noticeID string, fitScore float64, practiceArea, justification string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE opportunities SET fit_score = $1, assigned_practice_area = $2, justification = $3, updated_at = $4
		 WHERE notice_id = $5`,
		fitScore, practiceArea, justification, time.Now().UTC(), noticeID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update score %s", noticeID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("opportunity not found: %s", noticeID)
	}
	return nil
}

// ListMatchCandidates returns scored, current-version opportunities at or
// above the fit floor, highest score first.
func (s *PostgresStore) ListMatchCandidates(ctx context.Context, minFitScore float64, limit int) ([]model.Opportunity, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		 WHERE fit_score >= $1 AND superseded_by_notice_id IS NULL
		 ORDER BY fit_score DESC, created_at ASC LIMIT $2`,
		minFitScore, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list match candidates")
	}
	return collectOpportunities(rows, "list match candidates")
}

// ListBySolicitation returns all stored versions sharing a solicitation
// number, oldest first.
func (s *PostgresStore) ListBySolicitation(ctx context.Context, solicitationNumber string) ([]model.Opportunity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities
		 WHERE solicitation_number = $1 ORDER BY created_at ASC`, solicitationNumber)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list by solicitation %s", solicitationNumber)
	}
	return collectOpportunities(rows, "list by solicitation")
}

func collectOpportunities(rows pgx.Rows, op string) ([]model.Opportunity, error) {
	defer rows.Close()
	var opps []model.Opportunity
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: scan opportunity (%s)", op)
		}
		opps = append(opps, *o)
	}
	return opps, eris.Wrapf(rows.Err(), "postgres: %s iterate", op)
}

// LinkAmendment applies the amendment chain writes in one transaction so a
// reader never sees a new version without its predecessor's forward pointer.
func (s *PostgresStore) LinkAmendment(ctx context.Context, link AmendmentLink) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin amendment link")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	tag, err := tx.Exec(ctx,
		`UPDATE opportunities SET is_amendment = $1, original_notice_id = $2, updated_at = $3
		 WHERE notice_id = $4`,
		link.IsAmendment, link.OriginalNoticeID, now, link.NoticeID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set amendment fields %s", link.NoticeID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("opportunity not found: %s", link.NoticeID)
	}

	if link.SupersedeNoticeID != "" {
		_, err = tx.Exec(ctx,
			`UPDATE opportunities SET superseded_by_notice_id = $1, updated_at = $2
			 WHERE notice_id = $3`,
			link.NoticeID, now, link.SupersedeNoticeID,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: supersede %s", link.SupersedeNoticeID)
		}
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit amendment link")
}

// EnsureGovWinOpportunity inserts the record if its govwin_id is new and
// returns the stored row either way.
func (s *PostgresStore) EnsureGovWinOpportunity(ctx context.Context, opp *model.GovWinOpportunity) (*model.GovWinOpportunity, bool, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	raw := opp.RawData
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO govwin_opportunities (id, govwin_id, title, raw_data, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (govwin_id) DO NOTHING`,
		id, opp.GovWinID, opp.Title, raw, now,
	)
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: insert govwin opportunity %s", opp.GovWinID)
	}

	var stored model.GovWinOpportunity
	var title *string
	err = s.pool.QueryRow(ctx,
		`SELECT id, govwin_id, title, raw_data, created_at FROM govwin_opportunities WHERE govwin_id = $1`,
		opp.GovWinID,
	).Scan(&stored.ID, &stored.GovWinID, &title, &stored.RawData, &stored.CreatedAt)
	if err != nil {
		return nil, false, eris.Wrapf(err, "postgres: get govwin opportunity %s", opp.GovWinID)
	}
	if title != nil {
		stored.Title = *title
	}
	return &stored, tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetGovWinOpportunity(ctx context.Context, id string) (*model.GovWinOpportunity, error) {
	var g model.GovWinOpportunity
	var title *string
	err := s.pool.QueryRow(ctx,
		`SELECT id, govwin_id, title, raw_data, created_at FROM govwin_opportunities WHERE id = $1`, id,
	).Scan(&g.ID, &g.GovWinID, &title, &g.RawData, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get govwin opportunity by id %s", id)
	}
	if title != nil {
		g.Title = *title
	}
	return &g, nil
}

// CreateContract stores a contract record. Duplicate contracts for the same
// opportunity are skipped.
func (s *PostgresStore) CreateContract(ctx context.Context, c *model.Contract) (bool, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	raw := c.RawData
	if len(raw) == 0 {
		raw = []byte("{}")
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO govwin_contracts (id, govwin_opportunity_id, contract_id, contract_number, title,
			vendor_name, vendor_id, contract_value, award_date, start_date, end_date, status, raw_data, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 ON CONFLICT (govwin_opportunity_id, contract_id) DO NOTHING`,
		id, c.GovWinOpportunityID, c.ContractID, c.ContractNumber, c.Title,
		c.VendorName, c.VendorID, c.ContractValue, c.AwardDate, c.StartDate, c.EndDate, c.Status, raw, now,
	)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert contract %s", c.ContractID)
	}
	return tag.RowsAffected() > 0, nil
}

const matchColumns = `id, sam_opportunity_id, govwin_opportunity_id, search_strategy, match_type,
	ai_match_score, ai_reasoning, status, user_notes, reviewed_by, reviewed_at, created_at, updated_at`

func scanMatch(row pgx.Row) (*model.Match, error) {
	var m model.Match
	var strategy, matchType, reasoning, notes, reviewedBy *string

	err := row.Scan(&m.ID, &m.SAMOpportunityID, &m.GovWinOpportunityID, &strategy, &matchType,
		&m.AIMatchScore, &reasoning, &m.Status, &notes, &reviewedBy, &m.ReviewedAt, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if strategy != nil {
		m.SearchStrategy = *strategy
	}
	if matchType != nil {
		m.MatchType = model.MatchType(*matchType)
	}
	if reasoning != nil {
		m.AIReasoning = *reasoning
	}
	if notes != nil {
		m.UserNotes = *notes
	}
	if reviewedBy != nil {
		m.ReviewedBy = *reviewedBy
	}
	return &m, nil
}

// RecordMatch stores a match for an opportunity pair. If the pair already
// exists the stored row is returned and the bool result is false.
func (s *PostgresStore) RecordMatch(ctx context.Context, m *model.Match) (*model.Match, bool, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	status := m.Status
	if status == "" {
		status = model.MatchStatusPendingReview
	}

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO opportunity_matches (id, sam_opportunity_id, govwin_opportunity_id, search_strategy,
			match_type, ai_match_score, ai_reasoning, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (sam_opportunity_id, govwin_opportunity_id) DO NOTHING`,
		id, m.SAMOpportunityID, m.GovWinOpportunityID, m.SearchStrategy,
		string(m.MatchType), m.AIMatchScore, m.AIReasoning, string(status), now, now,
	)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: insert match")
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM opportunity_matches
		 WHERE sam_opportunity_id = $1 AND govwin_opportunity_id = $2`,
		m.SAMOpportunityID, m.GovWinOpportunityID)
	stored, err := scanMatch(row)
	if err != nil {
		return nil, false, eris.Wrap(err, "postgres: get recorded match")
	}
	return stored, tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetMatch(ctx context.Context, id string) (*model.Match, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM opportunity_matches WHERE id = $1`, id)
	m, err := scanMatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get match %s", id)
	}
	return m, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, filter MatchFilter) ([]model.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM opportunity_matches WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list matches")
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		matches = append(matches, *m)
	}
	return matches, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

// ReviewMatch updates the review state of a match. The reviewer stamp is
// written the first time a match leaves pending_review and is preserved on
// later transitions.
func (s *PostgresStore) ReviewMatch(ctx context.Context, id string, status model.MatchStatus, userNotes, reviewedBy string) (*model.Match, error) {
	if !model.ValidMatchStatus(status) {
		return nil, eris.Errorf("invalid match status: %s", status)
	}

	now := time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE opportunity_matches
		 SET status = $1,
		     user_notes = $2,
		     reviewed_by = CASE WHEN reviewed_at IS NULL AND $1 != 'pending_review' THEN $3 ELSE reviewed_by END,
		     reviewed_at = CASE WHEN reviewed_at IS NULL AND $1 != 'pending_review' THEN $4 ELSE reviewed_at END,
		     updated_at = $4
		 WHERE id = $5`,
		string(status), userNotes, reviewedBy, now, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: review match %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Errorf("match not found: %s", id)
	}
	return s.GetMatch(ctx, id)
}

func (s *PostgresStore) MatchStats(ctx context.Context) (*model.MatchStats, error) {
	var stats model.MatchStats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*),
		        count(*) FILTER (WHERE status = 'pending_review'),
		        count(*) FILTER (WHERE status = 'confirmed'),
		        count(*) FILTER (WHERE status = 'rejected'),
		        count(*) FILTER (WHERE status = 'needs_info'),
		        COALESCE(avg(ai_match_score), 0)
		 FROM opportunity_matches`,
	).Scan(&stats.Total, &stats.PendingReview, &stats.Confirmed, &stats.Rejected, &stats.NeedsInfo, &stats.AverageScore)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: match stats")
	}

	var strategy *string
	err = s.pool.QueryRow(ctx,
		`SELECT search_strategy FROM opportunity_matches
		 WHERE search_strategy IS NOT NULL
		 GROUP BY search_strategy ORDER BY count(*) DESC LIMIT 1`,
	).Scan(&strategy)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrap(err, "postgres: top search strategy")
	}
	if strategy != nil {
		stats.TopSearchStrategy = *strategy
	}
	return &stats, nil
}

func (s *PostgresStore) OpportunityStats(ctx context.Context) (*model.OpportunityStats, error) {
	var stats model.OpportunityStats
	err := s.pool.QueryRow(ctx,
		`SELECT
		    (SELECT count(*) FROM opportunities),
		    (SELECT count(*) FROM govwin_opportunities),
		    (SELECT count(*) FROM opportunities WHERE fit_score >= 7),
		    (SELECT COALESCE(avg(fit_score), 0) FROM opportunities WHERE fit_score > 0)`,
	).Scan(&stats.TotalSAM, &stats.TotalGovWin, &stats.HighScoringSAM, &stats.AverageFitScore)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: opportunity stats")
	}
	return &stats, nil
}
