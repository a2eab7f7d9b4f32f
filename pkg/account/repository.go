package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
)

var ErrAccountNotFound = errors.New("account not found")

// Repository is the secure credential store for connected accounts. Deleting
// an account deletes its tokens with it; there is no separate token table.
type Repository interface {
	List(ctx context.Context) ([]Account, error)
	Get(ctx context.Context, accountId string) (Account, error)
	Store(ctx context.Context, account Account) error
	// UpdateTokens replaces the token triple for one account and clears the
	// re-auth flag. It is the only write performed after a refresh.
	UpdateTokens(ctx context.Context, accountId, accessToken, refreshToken string, expiry time.Time) error
	SetEnabled(ctx context.Context, accountId string, enabled bool) error
	SetNeedsReauth(ctx context.Context, accountId string, needsReauth bool) error
	Delete(ctx context.Context, accountId string) error
}

type RepositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

const accountColumns = "id, email, display_name, enabled, access_token, refresh_token, token_expiry, needs_reauth"

func (r *RepositoryImpl) List(ctx context.Context) ([]Account, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+accountColumns+" FROM account ORDER BY email")
	if err != nil {
		err := fmt.Errorf("could not query accounts: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	accounts := make([]Account, 0, 4)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			err := fmt.Errorf("could not scan account row: %w", err)
			log.Error(err)
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

func (r *RepositoryImpl) Get(ctx context.Context, accountId string) (Account, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+accountColumns+" FROM account WHERE id = ?", accountId)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, ErrAccountNotFound
	} else if err != nil {
		err := fmt.Errorf("could not load account %s: %w", accountId, err)
		log.Error(err)
		return Account{}, err
	}
	return account, nil
}

func (r *RepositoryImpl) Store(ctx context.Context, account Account) error {
	query := `INSERT INTO account (id, email, display_name, enabled, access_token, refresh_token, token_expiry, needs_reauth)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT (id) DO UPDATE SET
			      email = excluded.email,
			      display_name = excluded.display_name,
			      access_token = excluded.access_token,
			      refresh_token = excluded.refresh_token,
			      token_expiry = excluded.token_expiry,
			      needs_reauth = excluded.needs_reauth`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Email, account.DisplayName, account.Enabled,
		account.AccessToken, account.RefreshToken, account.TokenExpiry.Unix(), account.NeedsReauth)
	if err != nil {
		err := fmt.Errorf("could not store account %s: %w", account.ID, err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) UpdateTokens(ctx context.Context, accountId, accessToken, refreshToken string, expiry time.Time) error {
	query := `UPDATE account SET access_token = ?, refresh_token = ?, token_expiry = ?, needs_reauth = 0 WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, accessToken, refreshToken, expiry.Unix(), accountId)
	if err != nil {
		err := fmt.Errorf("could not update tokens for account %s: %w", accountId, err)
		log.Error(err)
		return err
	}
	return requireOneRow(result, accountId)
}

func (r *RepositoryImpl) SetEnabled(ctx context.Context, accountId string, enabled bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE account SET enabled = ? WHERE id = ?", enabled, accountId)
	if err != nil {
		err := fmt.Errorf("could not update enabled flag for account %s: %w", accountId, err)
		log.Error(err)
		return err
	}
	return requireOneRow(result, accountId)
}

func (r *RepositoryImpl) SetNeedsReauth(ctx context.Context, accountId string, needsReauth bool) error {
	result, err := r.db.ExecContext(ctx, "UPDATE account SET needs_reauth = ? WHERE id = ?", needsReauth, accountId)
	if err != nil {
		err := fmt.Errorf("could not update reauth flag for account %s: %w", accountId, err)
		log.Error(err)
		return err
	}
	return requireOneRow(result, accountId)
}

func (r *RepositoryImpl) Delete(ctx context.Context, accountId string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM account WHERE id = ?", accountId)
	if err != nil {
		err := fmt.Errorf("could not delete account %s: %w", accountId, err)
		log.Error(err)
		return err
	}
	return requireOneRow(result, accountId)
}

func requireOneRow(result sql.Result, accountId string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func scanAccount(row interface{ Scan(dest ...any) error }) (Account, error) {
	var account Account
	var expiry int64
	err := row.Scan(&account.ID, &account.Email, &account.DisplayName, &account.Enabled,
		&account.AccessToken, &account.RefreshToken, &expiry, &account.NeedsReauth)
	if err != nil {
		return Account{}, err
	}
	account.TokenExpiry = time.Unix(expiry, 0)
	return account, nil
}
