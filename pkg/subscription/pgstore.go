package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists billing state on the tenants table. Billing fields live
// on the tenant row itself (one subscription per clinic), so Save updates
// those columns and never inserts: tenant provisioning happens upstream in
// onboarding, and a webhook for an unknown tenant is an error worth
// surfacing, not a row worth creating.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a PostgreSQL-backed Store.
// Panics if pool is nil to fail fast during initialization.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	if pool == nil {
		panic("subscription: pgxpool is required")
	}
	return &PGStore{pool: pool}
}

const billingColumns = `id, plan_type, plan_name, subscription_status, is_trial_period,
	trial_ends_at, subscription_ends_at, billing_interval,
	provider_customer_id, provider_sub_id, canceled_at, created_at, updated_at`

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, tenantID uuid.UUID) (*Billing, error) {
	query := `SELECT ` + billingColumns + ` FROM tenants WHERE id = $1`

	var b Billing
	var planType, status, interval string
	err := s.pool.QueryRow(ctx, query, tenantID).Scan(
		&b.TenantID,
		&planType,
		&b.PlanName,
		&status,
		&b.IsTrialPeriod,
		&b.TrialEndsAt,
		&b.SubscriptionEndsAt,
		&interval,
		&b.ProviderCustomerID,
		&b.ProviderSubID,
		&b.CanceledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillingNotFound
		}
		return nil, fmt.Errorf("query tenant billing: %w", err)
	}

	b.PlanType = PlanTier(planType)
	b.Status = SubscriptionStatus(status)
	b.Interval = BillingInterval(interval)
	return &b, nil
}

// GetByProviderCustomerID implements Store.
func (s *PGStore) GetByProviderCustomerID(ctx context.Context, customerID string) (*Billing, error) {
	if customerID == "" {
		return nil, ErrBillingNotFound
	}

	query := `SELECT ` + billingColumns + ` FROM tenants WHERE provider_customer_id = $1`

	var b Billing
	var planType, status, interval string
	err := s.pool.QueryRow(ctx, query, customerID).Scan(
		&b.TenantID,
		&planType,
		&b.PlanName,
		&status,
		&b.IsTrialPeriod,
		&b.TrialEndsAt,
		&b.SubscriptionEndsAt,
		&interval,
		&b.ProviderCustomerID,
		&b.ProviderSubID,
		&b.CanceledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBillingNotFound
		}
		return nil, fmt.Errorf("query tenant billing by provider customer: %w", err)
	}

	b.PlanType = PlanTier(planType)
	b.Status = SubscriptionStatus(status)
	b.Interval = BillingInterval(interval)
	return &b, nil
}

// Save implements Store.
func (s *PGStore) Save(ctx context.Context, b *Billing) error {
	query := `
		UPDATE tenants SET
			plan_type = $2,
			plan_name = $3,
			subscription_status = $4,
			is_trial_period = $5,
			trial_ends_at = $6,
			subscription_ends_at = $7,
			billing_interval = $8,
			provider_customer_id = $9,
			provider_sub_id = $10,
			canceled_at = $11,
			updated_at = $12
		WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query,
		b.TenantID,
		string(b.PlanType),
		b.PlanName,
		string(b.Status),
		b.IsTrialPeriod,
		b.TrialEndsAt,
		b.SubscriptionEndsAt,
		string(b.Interval),
		b.ProviderCustomerID,
		b.ProviderSubID,
		b.CanceledAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tenant billing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBillingNotFound
	}
	return nil
}

// ListTrialsEndingBetween implements Store.
func (s *PGStore) ListTrialsEndingBetween(ctx context.Context, from, to time.Time) ([]*Billing, error) {
	query := `SELECT ` + billingColumns + `
		FROM tenants
		WHERE is_trial_period = TRUE
		  AND upper(subscription_status) = 'TRIALING'
		  AND trial_ends_at >= $1
		  AND trial_ends_at < $2
		ORDER BY trial_ends_at`

	rows, err := s.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("query ending trials: %w", err)
	}
	defer rows.Close()

	var out []*Billing
	for rows.Next() {
		var b Billing
		var planType, status, interval string
		if err := rows.Scan(
			&b.TenantID,
			&planType,
			&b.PlanName,
			&status,
			&b.IsTrialPeriod,
			&b.TrialEndsAt,
			&b.SubscriptionEndsAt,
			&interval,
			&b.ProviderCustomerID,
			&b.ProviderSubID,
			&b.CanceledAt,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan ending trial: %w", err)
		}
		b.PlanType = PlanTier(planType)
		b.Status = SubscriptionStatus(status)
		b.Interval = BillingInterval(interval)
		out = append(out, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ending trials: %w", err)
	}
	return out, nil
}
