package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// PlanPrice is one billing option for a plan, with the provider-side price
// identifiers the checkout and plan-change flows need.
type PlanPrice struct {
	Interval      BillingInterval `json:"interval" yaml:"interval"`
	Price         Money           `json:"price" yaml:"price"`
	PaddlePriceID string          `json:"-" yaml:"paddle_price_id"`
	StripePriceID string          `json:"-" yaml:"stripe_price_id"`
}

// Plan describes one tier of the Vetify catalog.
type Plan struct {
	Tier        PlanTier                      `json:"tier" yaml:"tier"`
	Name        string                        `json:"name" yaml:"name"`
	Description string                        `json:"description,omitempty" yaml:"description"`
	Prices      map[BillingInterval]PlanPrice `json:"prices" yaml:"prices"`
	Limits      map[Resource]int64            `json:"limits" yaml:"limits"`
	TrialDays   int                           `json:"trial_days" yaml:"trial_days"`
	Public      bool                          `json:"public" yaml:"public"`
}

// Features returns the feature set this plan's tier unlocks.
func (p Plan) Features() []Feature {
	return Features(p.Tier)
}

// Price returns the price for a billing interval.
func (p Plan) Price(interval BillingInterval) (PlanPrice, bool) {
	price, ok := p.Prices[interval]
	return price, ok
}

// TrialEndsAt computes when a trial started at the given time expires.
func (p Plan) TrialEndsAt(startedAt time.Time) time.Time {
	return startedAt.Add(time.Duration(p.TrialDays) * 24 * time.Hour)
}

// Catalog is an immutable, validated set of plans indexed for the lookups
// the engine performs: by tier for upgrades, by provider price ID for
// webhook reconciliation.
type Catalog struct {
	byTier  map[PlanTier]Plan
	byPrice map[string]priceRef
}

type priceRef struct {
	tier     PlanTier
	interval BillingInterval
}

// NewCatalog validates the plan set and builds the lookup indexes.
func NewCatalog(plans []Plan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, errors.Join(ErrInvalidPlanConfiguration, errors.New("catalog is empty"))
	}

	c := &Catalog{
		byTier:  make(map[PlanTier]Plan, len(plans)),
		byPrice: make(map[string]priceRef),
	}

	for _, plan := range plans {
		if !plan.Tier.Known() {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("unknown tier %q", plan.Tier))
		}
		if plan.Name == "" {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has no name", plan.Tier))
		}
		if _, dup := c.byTier[plan.Tier]; dup {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("duplicate plan for tier %s", plan.Tier))
		}
		if plan.TrialDays < 0 {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative trial days: %d", plan.Tier, plan.TrialDays))
		}
		if _, ok := plan.Prices[BillingIntervalMonthly]; !ok {
			return nil, errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s is missing a monthly price", plan.Tier))
		}
		for interval, price := range plan.Prices {
			if price.Interval != interval {
				return nil, errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s: price keyed %s declares interval %s", plan.Tier, interval, price.Interval))
			}
			for _, id := range []string{price.PaddlePriceID, price.StripePriceID} {
				if id == "" {
					continue
				}
				if prev, dup := c.byPrice[id]; dup {
					return nil, errors.Join(ErrInvalidPlanConfiguration,
						fmt.Errorf("price ID %s used by both %s and %s", id, prev.tier, plan.Tier))
				}
				c.byPrice[id] = priceRef{tier: plan.Tier, interval: interval}
			}
		}
		for res, limit := range plan.Limits {
			if limit < Unlimited {
				return nil, errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("plan %s: invalid limit %d for %s", plan.Tier, limit, res))
			}
		}

		c.byTier[plan.Tier] = plan
	}

	return c, nil
}

// ByTier returns the plan for a tier.
func (c *Catalog) ByTier(tier PlanTier) (Plan, bool) {
	plan, ok := c.byTier[tier]
	return plan, ok
}

// ByProviderPriceID resolves a provider price identifier (Paddle or Stripe)
// back to the plan and interval it belongs to. Webhook processing uses this
// to translate provider payloads into catalog terms.
func (c *Catalog) ByProviderPriceID(priceID string) (Plan, BillingInterval, bool) {
	ref, ok := c.byPrice[priceID]
	if !ok {
		return Plan{}, "", false
	}
	return c.byTier[ref.tier], ref.interval, true
}

// Public returns the publicly offered plans ordered from cheapest tier up.
func (c *Catalog) Public() []Plan {
	out := make([]Plan, 0, len(c.byTier))
	for _, plan := range c.byTier {
		if plan.Public {
			out = append(out, plan)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tier.Rank() < out[j].Tier.Rank() })
	return out
}

// Source loads the plan catalog at service construction.
type Source interface {
	Load(ctx context.Context) ([]Plan, error)
}

// StaticSource serves a fixed plan list, typically DefaultPlans or a test
// fixture.
type StaticSource []Plan

// Load implements Source.
func (s StaticSource) Load(_ context.Context) ([]Plan, error) {
	return []Plan(s), nil
}

// DefaultPlans returns the built-in Vetify catalog. Deployments normally
// load the catalog from a YAML file so price IDs can rotate without a
// release; this set backs development and tests.
func DefaultPlans() []Plan {
	mxn := func(amount int64) Money { return Money{Amount: amount, Currency: "MXN"} }

	return []Plan{
		{
			Tier:        TierBasico,
			Name:        "Básico",
			Description: "Consultorios que inician: agenda y expedientes para una sola sucursal.",
			Prices: map[BillingInterval]PlanPrice{
				BillingIntervalMonthly: {Interval: BillingIntervalMonthly, Price: mxn(44900), PaddlePriceID: "pri_01hv8b2qkbasico0m", StripePriceID: "price_vfy_basico_m"},
				BillingIntervalAnnual:  {Interval: BillingIntervalAnnual, Price: mxn(449000), PaddlePriceID: "pri_01hv8b2qkbasico0y", StripePriceID: "price_vfy_basico_y"},
			},
			Limits: map[Resource]int64{
				ResourceUsers:          2,
				ResourcePatients:       500,
				ResourceAppointments:   300,
				ResourceInventoryItems: 100,
				ResourceAPIKeys:        0,
				ResourceWebhooks:       0,
				ResourceLocations:      1,
			},
			TrialDays: 0,
			Public:    true,
		},
		{
			Tier:        TierProfesional,
			Name:        "Profesional",
			Description: "Veterinarias en crecimiento: punto de venta, inventario y recordatorios.",
			Prices: map[BillingInterval]PlanPrice{
				BillingIntervalMonthly: {Interval: BillingIntervalMonthly, Price: mxn(89900), PaddlePriceID: "pri_01hv8b2qkprofes0m", StripePriceID: "price_vfy_profesional_m"},
				BillingIntervalAnnual:  {Interval: BillingIntervalAnnual, Price: mxn(899000), PaddlePriceID: "pri_01hv8b2qkprofes0y", StripePriceID: "price_vfy_profesional_y"},
			},
			Limits: map[Resource]int64{
				ResourceUsers:          5,
				ResourcePatients:       2000,
				ResourceAppointments:   1000,
				ResourceInventoryItems: 500,
				ResourceAPIKeys:        2,
				ResourceWebhooks:       2,
				ResourceLocations:      1,
			},
			TrialDays: 14,
			Public:    true,
		},
		{
			Tier:        TierClinica,
			Name:        "Clínica",
			Description: "Clínicas establecidas: reportes avanzados, API y campañas de correo.",
			Prices: map[BillingInterval]PlanPrice{
				BillingIntervalMonthly: {Interval: BillingIntervalMonthly, Price: mxn(169900), PaddlePriceID: "pri_01hv8b2qkclinic0m", StripePriceID: "price_vfy_clinica_m"},
				BillingIntervalAnnual:  {Interval: BillingIntervalAnnual, Price: mxn(1699000), PaddlePriceID: "pri_01hv8b2qkclinic0y", StripePriceID: "price_vfy_clinica_y"},
			},
			Limits: map[Resource]int64{
				ResourceUsers:          15,
				ResourcePatients:       10000,
				ResourceAppointments:   5000,
				ResourceInventoryItems: 2000,
				ResourceAPIKeys:        5,
				ResourceWebhooks:       5,
				ResourceLocations:      3,
			},
			TrialDays: 14,
			Public:    true,
		},
		{
			Tier:        TierEmpresa,
			Name:        "Empresa",
			Description: "Cadenas y hospitales: multisucursal sin límites y soporte prioritario.",
			Prices: map[BillingInterval]PlanPrice{
				BillingIntervalMonthly: {Interval: BillingIntervalMonthly, Price: mxn(299900), PaddlePriceID: "pri_01hv8b2qkempres0m", StripePriceID: "price_vfy_empresa_m"},
				BillingIntervalAnnual:  {Interval: BillingIntervalAnnual, Price: mxn(2999000), PaddlePriceID: "pri_01hv8b2qkempres0y", StripePriceID: "price_vfy_empresa_y"},
			},
			Limits: map[Resource]int64{
				ResourceUsers:          Unlimited,
				ResourcePatients:       Unlimited,
				ResourceAppointments:   Unlimited,
				ResourceInventoryItems: Unlimited,
				ResourceAPIKeys:        Unlimited,
				ResourceWebhooks:       Unlimited,
				ResourceLocations:      10,
			},
			TrialDays: 14,
			Public:    true,
		},
	}
}
