package pgrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"spinlab/internal/lead"
)

const (
	leadsTable  = "leads"
	claimsTable = "claims"

	colID         = "id"
	colFullName   = "full_name"
	colEmail      = "email"
	colPhone      = "phone"
	colOccupation = "occupation"
	colAddress    = "address"
	colGender     = "gender"
	colReligion   = "religion"
	colBirthDate  = "birth_date"
	colSize       = "size"
	colFit        = "fit"
	colConsent    = "consent"
	colCreatedAt  = "created_at"

	colLeadID     = "lead_id"
	colSessionID  = "session_id"
	colPrize      = "prize"
	colRewardCode = "reward_code"
)

// Schema creates the tables if they are missing.
const Schema = `
CREATE TABLE IF NOT EXISTS leads (
	id          UUID PRIMARY KEY,
	full_name   TEXT NOT NULL,
	email       TEXT NOT NULL,
	phone       TEXT NOT NULL,
	occupation  TEXT NOT NULL DEFAULT '',
	address     TEXT NOT NULL DEFAULT '',
	gender      TEXT NOT NULL DEFAULT '',
	religion    TEXT NOT NULL DEFAULT '',
	birth_date  DATE,
	size        TEXT NOT NULL,
	fit         TEXT NOT NULL,
	consent     BOOLEAN NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS claims (
	lead_id     UUID PRIMARY KEY REFERENCES leads(id) ON DELETE CASCADE,
	session_id  TEXT NOT NULL,
	prize       TEXT NOT NULL,
	reward_code TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type repo struct {
	db        *pgxpool.Pool
	txManager trm.Manager
	getter    *trmpgx.CtxGetter
}

// New returns a Postgres-backed claim repository. Save writes the lead and
// its claim in one transaction.
func New(db *pgxpool.Pool, txManager trm.Manager) lead.Repository {
	return &repo{
		db:        db,
		txManager: txManager,
		getter:    trmpgx.DefaultCtxGetter,
	}
}

// Migrate applies Schema.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	if _, err := db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (r *repo) Save(ctx context.Context, claim lead.Claim) error {
	return r.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := r.insertLead(txCtx, claim); err != nil {
			return err
		}
		return r.insertClaim(txCtx, claim)
	})
}

func insertLeadQuery(claim lead.Claim) sq.InsertBuilder {
	rec := claim.Record
	var birth *time.Time
	if !rec.BirthDate.IsZero() {
		birth = &rec.BirthDate
	}
	return psql.Insert(leadsTable).
		Columns(colID, colFullName, colEmail, colPhone, colOccupation, colAddress,
			colGender, colReligion, colBirthDate, colSize, colFit, colConsent, colCreatedAt).
		Values(claim.ID, rec.FullName, rec.Email, rec.Phone, rec.Occupation, rec.Address,
			rec.Gender, rec.Religion, birth, string(rec.Size), string(rec.Fit), rec.Consent, claim.CreatedAt)
}

func insertClaimQuery(claim lead.Claim) sq.InsertBuilder {
	return psql.Insert(claimsTable).
		Columns(colLeadID, colSessionID, colPrize, colRewardCode, colCreatedAt).
		Values(claim.ID, claim.SessionID, claim.Prize, claim.RewardCode, claim.CreatedAt)
}

func (r *repo) insertLead(ctx context.Context, claim lead.Claim) error {
	sqlStr, args, err := insertLeadQuery(claim).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.getter.DefaultTrOrDB(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func (r *repo) insertClaim(ctx context.Context, claim lead.Claim) error {
	sqlStr, args, err := insertClaimQuery(claim).ToSql()
	if err != nil {
		return err
	}
	if _, err := r.getter.DefaultTrOrDB(ctx, r.db).Exec(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (r *repo) Recent(ctx context.Context, limit int) ([]lead.Claim, error) {
	if limit <= 0 {
		limit = 50
	}
	query := psql.Select(
		"l."+colID, "c."+colSessionID, "c."+colPrize, "c."+colRewardCode, "c."+colCreatedAt,
		"l."+colFullName, "l."+colEmail, "l."+colPhone, "l."+colOccupation, "l."+colAddress,
		"l."+colGender, "l."+colReligion, "l."+colBirthDate, "l."+colSize, "l."+colFit, "l."+colConsent,
	).
		From(claimsTable + " c").
		Join(leadsTable + " l ON l." + colID + " = c." + colLeadID).
		OrderBy("c." + colCreatedAt + " DESC").
		Limit(uint64(limit))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.getter.DefaultTrOrDB(ctx, r.db).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("select claims: %w", err)
	}
	defer rows.Close()

	var out []lead.Claim
	for rows.Next() {
		var (
			c         lead.Claim
			id        uuid.UUID
			birth     *time.Time
			size, fit string
		)
		if err := rows.Scan(&id, &c.SessionID, &c.Prize, &c.RewardCode, &c.CreatedAt,
			&c.Record.FullName, &c.Record.Email, &c.Record.Phone, &c.Record.Occupation, &c.Record.Address,
			&c.Record.Gender, &c.Record.Religion, &birth, &size, &fit, &c.Record.Consent); err != nil {
			return nil, err
		}
		c.ID = id
		if birth != nil {
			c.Record.BirthDate = *birth
		}
		c.Record.Size = lead.Size(size)
		c.Record.Fit = lead.Fit(fit)
		out = append(out, c)
	}
	return out, rows.Err()
}
