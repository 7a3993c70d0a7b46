package ledger

import (
	"context"
	"embed"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema embed.FS

const (
	tableAccounts = "accounts"
	tableEntries  = "ledger_entries"

	colID        = "id"
	colBalance   = "balance"
	colUpdatedAt = "updated_at"
	colAccountID = "account_id"
	colKind      = "kind"
	colAmount    = "amount"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres is a ledger stored in PostgreSQL. Each movement runs in its own
// transaction with the account row locked.
type Postgres struct {
	pool     *pgxpool.Pool
	tx       trm.Manager
	starting int64
	logger   *log.Logger
}

// OpenPostgres connects to dsn and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string, starting int64, logger *log.Logger) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("ledger: postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}
	m, err := manager.New(trmpgx.NewDefaultFactory(pool))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tx manager: %w", err)
	}
	return &Postgres{
		pool:     pool,
		tx:       m,
		starting: starting,
		logger:   logger.WithPrefix("ledger").With("driver", "postgres"),
	}, nil
}

// Migrate creates the ledger tables if they are missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	sqlBytes, err := schema.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, string(sqlBytes)); err != nil {
		return fmt.Errorf("failed to migrate ledger: %w", err)
	}
	return nil
}

// Close implements Store.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

func (p *Postgres) db(ctx context.Context) trmpgx.Tr {
	return trmpgx.DefaultCtxGetter.DefaultTrOrDB(ctx, p.pool)
}

// ensure creates the account with the starting balance if it does not exist.
func (p *Postgres) ensure(ctx context.Context, account string) error {
	sqlStr, args, err := psql.Insert(tableAccounts).
		Columns(colID, colBalance).
		Values(account, p.starting).
		Suffix("ON CONFLICT (" + colID + ") DO NOTHING").
		ToSql()
	if err != nil {
		return err
	}
	_, err = p.db(ctx).Exec(ctx, sqlStr, args...)
	return err
}

func (p *Postgres) lockBalance(ctx context.Context, account string) (int64, error) {
	sqlStr, args, err := psql.Select(colBalance).
		From(tableAccounts).
		Where(sq.Eq{colID: account}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return 0, err
	}
	var bal int64
	if err := p.db(ctx).QueryRow(ctx, sqlStr, args...).Scan(&bal); err != nil {
		return 0, err
	}
	return bal, nil
}

// Balance implements Bank.
func (p *Postgres) Balance(ctx context.Context, account string) (int64, error) {
	if err := checkAccount(account); err != nil {
		return 0, err
	}
	var bal int64
	err := p.tx.Do(ctx, func(txCtx context.Context) error {
		if err := p.ensure(txCtx, account); err != nil {
			return err
		}
		var err error
		bal, err = p.lockBalance(txCtx, account)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read balance: %w", err)
	}
	return bal, nil
}

// Withdraw implements Bank.
func (p *Postgres) Withdraw(ctx context.Context, account string, amount int64) error {
	return p.record(ctx, account, KindWithdraw, amount)
}

// Deposit implements Bank.
func (p *Postgres) Deposit(ctx context.Context, account string, amount int64) error {
	return p.record(ctx, account, KindDeposit, amount)
}

func (p *Postgres) record(ctx context.Context, account string, kind Kind, amount int64) error {
	if err := checkAccount(account); err != nil {
		return err
	}
	if err := checkAmount(amount); err != nil {
		return err
	}

	return p.tx.Do(ctx, func(txCtx context.Context) error {
		if err := p.ensure(txCtx, account); err != nil {
			return fmt.Errorf("failed to create account: %w", err)
		}
		bal, err := p.lockBalance(txCtx, account)
		if err != nil {
			return fmt.Errorf("failed to lock account: %w", err)
		}

		switch kind {
		case KindWithdraw:
			if bal < amount {
				return fmt.Errorf("%w: balance %d, need %d", ErrInsufficientFunds, bal, amount)
			}
			bal -= amount
		case KindDeposit:
			bal += amount
		}

		sqlStr, args, err := psql.Update(tableAccounts).
			Set(colBalance, bal).
			Set(colUpdatedAt, sq.Expr("now()")).
			Where(sq.Eq{colID: account}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := p.db(txCtx).Exec(txCtx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to update balance: %w", err)
		}

		sqlStr, args, err = psql.Insert(tableEntries).
			Columns(colAccountID, colKind, colAmount, colBalance).
			Values(account, string(kind), amount, bal).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := p.db(txCtx).Exec(txCtx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to journal movement: %w", err)
		}

		p.logger.Debug("Recorded", "account", account, "kind", kind, "amount", amount, "balance", bal)
		return nil
	})
}

// Journal returns the most recent movements for account, newest first.
func (p *Postgres) Journal(ctx context.Context, account string, limit uint64) ([]Entry, error) {
	sqlStr, args, err := psql.Select(colAccountID, colKind, colAmount, colBalance).
		From(tableEntries).
		Where(sq.Eq{colAccountID: account}).
		OrderBy(colID + " DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := p.db(ctx).Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var kind string
		if err := rows.Scan(&e.Account, &kind, &e.Amount, &e.Balance); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}
