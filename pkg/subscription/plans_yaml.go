package subscription

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLSource loads the plan catalog from a YAML file so operations can
// rotate provider price IDs or adjust limits without a release.
//
// Expected document shape:
//
//	plans:
//	  - tier: PROFESIONAL
//	    name: Profesional
//	    trial_days: 14
//	    public: true
//	    prices:
//	      monthly:
//	        interval: monthly
//	        price: {amount: 89900, currency: MXN}
//	        paddle_price_id: pri_...
//	        stripe_price_id: price_...
//	    limits:
//	      users: 5
//	      appointments: 1000
type YAMLSource struct {
	Path string
}

type yamlCatalog struct {
	Plans []Plan `yaml:"plans"`
}

// Load implements Source.
func (s YAMLSource) Load(_ context.Context) ([]Plan, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	return parseYAMLPlans(data)
}

func parseYAMLPlans(data []byte) ([]Plan, error) {
	var doc yamlCatalog
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, fmt.Errorf("parse plans yaml: %w", err))
	}
	if len(doc.Plans) == 0 {
		return nil, errors.Join(ErrFailedToLoadPlans, errors.New("plans yaml contains no plans"))
	}

	// YAML maps arrive keyed by strings; normalize interval keys so lookups
	// behave the same as the static catalog.
	for i, plan := range doc.Plans {
		normalized := make(map[BillingInterval]PlanPrice, len(plan.Prices))
		for key, price := range plan.Prices {
			interval, ok := ParseInterval(string(key))
			if !ok {
				return nil, errors.Join(ErrFailedToLoadPlans,
					fmt.Errorf("plan %s: unknown billing interval %q", plan.Tier, key))
			}
			if price.Interval == "" {
				price.Interval = interval
			}
			normalized[interval] = price
		}
		doc.Plans[i].Prices = normalized

		if tier, ok := ParseTier(string(plan.Tier)); ok {
			doc.Plans[i].Tier = tier
		}
	}

	return doc.Plans, nil
}
