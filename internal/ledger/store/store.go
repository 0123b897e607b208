package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/zakati/internal/ledger"
)

// pgLockNotAvailable is raised by FOR UPDATE NOWAIT when another session holds the row.
const pgLockNotAvailable = "55P03"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const selectAssetColumns = `a.id, a.code, a.class, a.kind, a.unit, a.country, a.unit_price_usd, a.active`

func scanAsset(s scanner) (*ledger.Asset, error) {
	var a ledger.Asset

	var class, unit string

	if err := s.Scan(&a.ID, &a.Code, &class, &a.Kind, &unit, &a.Country, &a.UnitPriceUSD, &a.Active); err != nil {
		return nil, err
	}

	a.Class = ledger.Class(class)
	a.Unit = ledger.Unit(unit)

	return &a, nil
}

// scanTransfer reads a transfer row joined with its asset and attachment.
// Expected column order: selectTransferColumns.
func scanTransfer(s scanner) (*ledger.Transfer, error) {
	var t ledger.Transfer

	var a ledger.Asset

	var typ, class, unit string

	var attID *uuid.UUID

	var attURL sql.NullString

	if err := s.Scan(
		&t.ID, &t.UserID, &t.AssetID, &typ, &t.Quantity, &t.OccurredAt, &t.Note,
		&attID, &attURL, &t.CreatedAt, &t.UpdatedAt,
		&a.ID, &a.Code, &class, &a.Kind, &unit, &a.Country, &a.UnitPriceUSD, &a.Active,
	); err != nil {
		return nil, err
	}

	t.Type = ledger.TransferType(typ)
	a.Class = ledger.Class(class)
	a.Unit = ledger.Unit(unit)
	t.Asset = &a
	t.AttachmentID = attID

	if attURL.Valid && attID != nil {
		t.Attachment = &ledger.Attachment{ID: *attID, URL: attURL.String}
	}

	return &t, nil
}

const selectTransferColumns = `
	t.id, t.user_id, t.asset_id, t.type, t.quantity, t.occurred_at, t.note,
	t.attachment_id, f.url AS attachment_url, t.created_at, t.updated_at,
	` + selectAssetColumns

const transferFrom = `
	FROM transfers t
	JOIN assets a ON t.asset_id = a.id
	LEFT JOIN attachments f ON t.attachment_id = f.id`

// Users

func (s *Store) GetUser(ctx context.Context, id int64) (*ledger.User, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.is_staff, u.is_active, u.display_currency_id
		FROM users u
		WHERE u.id = $1`

	var u ledger.User

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Staff, &u.Active, &u.DisplayCurrencyID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting user: %w", err)
	}

	if u.DisplayCurrencyID != nil {
		display, err := s.GetAsset(ctx, *u.DisplayCurrencyID)
		if err != nil && !errors.Is(err, ledger.ErrNotFound) {
			return nil, err
		}

		u.DisplayCurrency = display
	}

	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, filter ledger.UserFilter) ([]*ledger.User, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.is_staff, u.is_active, u.display_currency_id
		FROM users u`

	if filter.ActiveOnly {
		query += " WHERE u.is_active"
	}

	query += " ORDER BY u.id ASC"

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []*ledger.User

	for rows.Next() {
		var u ledger.User
		if err := rows.Scan(&u.ID, &u.Email, &u.FullName, &u.Staff, &u.Active, &u.DisplayCurrencyID); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}

		users = append(users, &u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	return users, nil
}

func (s *Store) SetDisplayCurrency(ctx context.Context, userID, assetID int64) error {
	query := `UPDATE users SET display_currency_id = $1 WHERE id = $2`

	res, err := s.db.ExecContext(ctx, query, assetID, userID)
	if err != nil {
		return fmt.Errorf("setting display currency: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}

	return nil
}

// Assets

func (s *Store) GetAsset(ctx context.Context, id int64) (*ledger.Asset, error) {
	query := `SELECT ` + selectAssetColumns + ` FROM assets a WHERE a.id = $1`

	a, err := scanAsset(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting asset: %w", err)
	}

	return a, nil
}

func (s *Store) GetAssetByCode(ctx context.Context, code string) (*ledger.Asset, error) {
	query := `SELECT ` + selectAssetColumns + ` FROM assets a WHERE a.code = $1`

	a, err := scanAsset(s.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting asset %s: %w", code, err)
	}

	return a, nil
}

func (s *Store) ListAssets(ctx context.Context, filter ledger.AssetFilter) ([]*ledger.Asset, error) {
	return listAssets(ctx, s.db, filter, "")
}

func listAssets(ctx context.Context, q querier, filter ledger.AssetFilter, suffix string) ([]*ledger.Asset, error) {
	query, args := assetQuery(filter)
	query += " ORDER BY a.kind ASC, a.code ASC" + suffix

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	defer rows.Close()

	var assets []*ledger.Asset

	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}

		assets = append(assets, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating asset rows: %w", err)
	}

	return assets, nil
}

func assetQuery(filter ledger.AssetFilter) (string, []any) {
	query := `SELECT ` + selectAssetColumns + ` FROM assets a WHERE TRUE`

	var args []any

	if filter.ActiveOnly {
		query += " AND a.active"
	}

	if filter.Codes != nil {
		args = append(args, filter.Codes)
		query += " AND a.code = ANY($" + strconv.Itoa(len(args)) + ")"
	}

	if filter.Class != nil {
		args = append(args, string(*filter.Class))
		query += " AND a.class = $" + strconv.Itoa(len(args))
	}

	if filter.Unit != nil {
		args = append(args, string(*filter.Unit))
		query += " AND a.unit = $" + strconv.Itoa(len(args))
	}

	return query, args
}

// Transfers

func (s *Store) CreateTransfer(ctx context.Context, t *ledger.Transfer) error {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	if err := insertTransfer(ctx, dbTx, t); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertTransfer(ctx context.Context, q querier, t *ledger.Transfer) error {
	if err := resolveAttachment(ctx, q, t); err != nil {
		return err
	}

	query := `
		INSERT INTO transfers (user_id, asset_id, type, quantity, occurred_at, note, attachment_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRowContext(ctx, query,
		t.UserID,
		t.AssetID,
		t.Type,
		t.Quantity,
		t.OccurredAt,
		t.Note,
		t.AttachmentID,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating transfer: %w", err)
	}

	return nil
}

// resolveAttachment finds or creates the attachment row for a transfer that
// carries a URL without an id.
func resolveAttachment(ctx context.Context, q querier, t *ledger.Transfer) error {
	if t.Attachment == nil || t.Attachment.ID != uuid.Nil {
		return nil
	}

	query := `
		INSERT INTO attachments (url)
		VALUES ($1)
		ON CONFLICT (url) DO UPDATE SET url = EXCLUDED.url
		RETURNING id
	`

	var id uuid.UUID
	if err := q.QueryRowContext(ctx, query, t.Attachment.URL).Scan(&id); err != nil {
		return fmt.Errorf("upserting attachment: %w", err)
	}

	t.Attachment.ID = id
	t.AttachmentID = &id

	return nil
}

func (s *Store) GetTransfer(ctx context.Context, id int64) (*ledger.Transfer, error) {
	query := `SELECT ` + selectTransferColumns + transferFrom + ` WHERE t.id = $1`

	t, err := scanTransfer(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting transfer: %w", err)
	}

	return t, nil
}

func (s *Store) ListTransfers(ctx context.Context, filter ledger.TransferFilter) ([]*ledger.Transfer, error) {
	if filter.AssetIDs != nil && len(filter.AssetIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + selectTransferColumns + transferFrom + ` WHERE t.user_id = $1`

	args := []any{filter.UserID}
	argIdx := 2

	if filter.AssetIDs != nil {
		query += fmt.Sprintf(" AND t.asset_id = ANY($%d)", argIdx)

		args = append(args, filter.AssetIDs)
		argIdx++
	}

	if filter.Start != nil {
		query += fmt.Sprintf(" AND t.occurred_at >= $%d", argIdx)

		args = append(args, *filter.Start)
		argIdx++
	}

	if filter.End != nil {
		query += fmt.Sprintf(" AND t.occurred_at <= $%d", argIdx)

		args = append(args, *filter.End)
		argIdx++
	}

	if filter.Desc {
		query += " ORDER BY t.occurred_at DESC, t.id DESC"
	} else {
		query += " ORDER BY t.occurred_at ASC, t.id ASC"
	}

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)

		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []*ledger.Transfer

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}

		transfers = append(transfers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating transfer rows: %w", err)
	}

	return transfers, nil
}

// EditTransfer locks the transfer row with FOR UPDATE NOWAIT, lets edit mutate
// it and writes the result back in the same transaction. A row held by another
// session yields ledger.ErrConflict instead of waiting or overwriting.
func (s *Store) EditTransfer(ctx context.Context, id int64, edit func(t *ledger.Transfer) error) (*ledger.Transfer, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	query := `SELECT ` + selectTransferColumns + transferFrom + `
		WHERE t.id = $1
		FOR UPDATE OF t NOWAIT`

	t, err := scanTransfer(dbTx.QueryRowContext(ctx, query, id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgLockNotAvailable {
			return nil, ledger.ErrConflict
		}

		if errors.Is(err, sql.ErrNoRows) {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("locking transfer: %w", err)
	}

	if err := edit(t); err != nil {
		return nil, err
	}

	if err := resolveAttachment(ctx, dbTx, t); err != nil {
		return nil, err
	}

	update := `
		UPDATE transfers
		SET asset_id = $1, type = $2, quantity = $3, note = $4, attachment_id = $5, updated_at = NOW()
		WHERE id = $6
		RETURNING updated_at
	`

	err = dbTx.QueryRowContext(ctx, update,
		t.AssetID,
		t.Type,
		t.Quantity,
		t.Note,
		t.AttachmentID,
		t.ID,
	).Scan(&t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("updating transfer: %w", err)
	}

	if t.Asset == nil || t.Asset.ID != t.AssetID {
		a, err := scanAsset(dbTx.QueryRowContext(ctx, `SELECT `+selectAssetColumns+` FROM assets a WHERE a.id = $1`, t.AssetID))
		if err != nil {
			return nil, fmt.Errorf("loading asset: %w", err)
		}

		t.Asset = a
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}

	return t, nil
}

// Imports

// importLockKey covers every import for a user, whatever dates it spans.
func importLockKey(userID int64) int64 {
	h := fnv.New64a()
	h.Write([]byte("import\x00"))
	h.Write([]byte(strconv.FormatInt(userID, 10)))

	return int64(h.Sum64())
}

type importTx struct {
	tx     *sql.Tx
	userID int64
}

func (s *Store) BeginImport(ctx context.Context, userID int64) (ledger.ImportTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	lockKey := importLockKey(userID)
	if _, err := dbTx.ExecContext(ctx, "SELECT pg_advisory_xact_lock($1)", lockKey); err != nil {
		dbTx.Rollback()
		return nil, fmt.Errorf("acquiring import lock: %w", err)
	}

	return &importTx{tx: dbTx, userID: userID}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindDuplicates(ctx context.Context, params []ledger.CreateParams) ([]*ledger.Transfer, error) {
	if len(params) == 0 {
		return nil, nil
	}

	type lookupKey struct {
		Date     string
		AssetID  int64
		Type     ledger.TransferType
		Quantity string
	}

	// Find min/max dates and build lookup set.
	minDate := params[0].OccurredAt
	maxDate := params[0].OccurredAt
	keySet := make(map[lookupKey]struct{}, len(params))

	for _, p := range params {
		if p.OccurredAt.Before(minDate) {
			minDate = p.OccurredAt
		}

		if p.OccurredAt.After(maxDate) {
			maxDate = p.OccurredAt
		}

		keySet[lookupKey{
			Date:     p.OccurredAt.Format(time.DateOnly),
			AssetID:  p.AssetID,
			Type:     p.Type,
			Quantity: p.Quantity.StringFixed(6),
		}] = struct{}{}
	}

	// Dates are compared by day, so widen the window to whole days.
	minDay := time.Date(minDate.Year(), minDate.Month(), minDate.Day(), 0, 0, 0, 0, minDate.Location())
	maxDay := time.Date(maxDate.Year(), maxDate.Month(), maxDate.Day(), 0, 0, 0, 0, maxDate.Location()).AddDate(0, 0, 1)

	query := `SELECT ` + selectTransferColumns + transferFrom + `
		WHERE t.user_id = $1 AND t.occurred_at >= $2 AND t.occurred_at < $3
		ORDER BY t.occurred_at ASC, t.id ASC`

	rows, err := itx.tx.QueryContext(ctx, query, itx.userID, minDay, maxDay)
	if err != nil {
		return nil, fmt.Errorf("finding duplicates: %w", err)
	}
	defer rows.Close()

	var duplicates []*ledger.Transfer

	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}

		k := lookupKey{
			Date:     t.OccurredAt.In(minDate.Location()).Format(time.DateOnly),
			AssetID:  t.AssetID,
			Type:     t.Type,
			Quantity: t.Quantity.StringFixed(6),
		}

		if _, found := keySet[k]; !found {
			continue
		}

		duplicates = append(duplicates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating duplicate rows: %w", err)
	}

	return duplicates, nil
}

func (itx *importTx) CreateTransfers(ctx context.Context, transfers []*ledger.Transfer) error {
	for _, t := range transfers {
		if err := insertTransfer(ctx, itx.tx, t); err != nil {
			return err
		}
	}

	return nil
}

// Prices

type priceTx struct {
	tx *sql.Tx
}

// BeginPriceUpdate opens the transaction a price feed run applies its changes in.
func (s *Store) BeginPriceUpdate(ctx context.Context) (ledger.PriceTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning price tx: %w", err)
	}

	return &priceTx{tx: dbTx}, nil
}

func (ptx *priceTx) Commit() error   { return ptx.tx.Commit() }
func (ptx *priceTx) Rollback() error { return ptx.tx.Rollback() }

// LockAssets selects the matching assets FOR UPDATE so no reader sees a half-applied price set.
func (ptx *priceTx) LockAssets(ctx context.Context, filter ledger.AssetFilter) ([]*ledger.Asset, error) {
	return listAssets(ctx, ptx.tx, filter, " FOR UPDATE")
}

func (ptx *priceTx) SetPrice(ctx context.Context, assetID int64, price decimal.Decimal) error {
	if _, err := ptx.tx.ExecContext(ctx, `UPDATE assets SET unit_price_usd = $1 WHERE id = $2`, price, assetID); err != nil {
		return fmt.Errorf("setting price of asset %d: %w", assetID, err)
	}

	return nil
}

// UpsertAsset creates or updates an asset by code. Used for seeding.
func (s *Store) UpsertAsset(ctx context.Context, a *ledger.Asset) (bool, error) {
	query := `
		INSERT INTO assets (code, class, kind, unit, country, unit_price_usd, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (code) DO UPDATE SET
			class = EXCLUDED.class, kind = EXCLUDED.kind, unit = EXCLUDED.unit,
			country = EXCLUDED.country, unit_price_usd = EXCLUDED.unit_price_usd, active = EXCLUDED.active
		RETURNING id, (xmax = 0) AS inserted
	`

	var inserted bool

	err := s.db.QueryRowContext(ctx, query,
		a.Code, a.Class, a.Kind, a.Unit, a.Country, a.UnitPriceUSD, a.Active,
	).Scan(&a.ID, &inserted)
	if err != nil {
		return false, fmt.Errorf("upserting asset %s: %w", a.Code, err)
	}

	return inserted, nil
}
