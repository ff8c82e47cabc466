package subscription

// Feature identifies a gated product capability.
type Feature string

const (
	FeatureAppointments      Feature = "appointments"
	FeatureMedicalRecords    Feature = "medical_records"
	FeatureMicrosite         Feature = "microsite"
	FeaturePDFExport         Feature = "pdf_export"
	FeaturePOS               Feature = "pos"
	FeatureInventory         Feature = "inventory"
	FeaturePushNotifications Feature = "push_notifications"
	FeatureEmailCampaigns    Feature = "email_campaigns"
	FeatureAdvancedReports   Feature = "advanced_reports"
	FeatureAPIAccess         Feature = "api_access"
	FeatureWebhooks          Feature = "webhooks"
	FeatureExcelExport       Feature = "excel_export"
	FeatureMultiLocation     Feature = "multi_location"
	FeaturePrioritySupport   Feature = "priority_support"
)

// tierFeatures is the single source of truth mapping each tier to the
// features it unlocks. Tiers are cumulative: every tier includes everything
// below it. Entitlement resolution is a pure lookup here, deliberately
// separate from status derivation so pricing pages can render feature
// matrices without touching live billing state.
var tierFeatures = map[PlanTier][]Feature{
	TierBasico: {
		FeatureAppointments,
		FeatureMedicalRecords,
		FeatureMicrosite,
		FeaturePDFExport,
	},
	TierProfesional: {
		FeatureAppointments,
		FeatureMedicalRecords,
		FeatureMicrosite,
		FeaturePDFExport,
		FeaturePOS,
		FeatureInventory,
		FeaturePushNotifications,
	},
	TierClinica: {
		FeatureAppointments,
		FeatureMedicalRecords,
		FeatureMicrosite,
		FeaturePDFExport,
		FeaturePOS,
		FeatureInventory,
		FeaturePushNotifications,
		FeatureEmailCampaigns,
		FeatureAdvancedReports,
		FeatureAPIAccess,
		FeatureWebhooks,
		FeatureExcelExport,
	},
	TierEmpresa: {
		FeatureAppointments,
		FeatureMedicalRecords,
		FeatureMicrosite,
		FeaturePDFExport,
		FeaturePOS,
		FeatureInventory,
		FeaturePushNotifications,
		FeatureEmailCampaigns,
		FeatureAdvancedReports,
		FeatureAPIAccess,
		FeatureWebhooks,
		FeatureExcelExport,
		FeatureMultiLocation,
		FeaturePrioritySupport,
	},
}

// HasFeature reports whether a tier includes a feature. Unknown tiers and
// unknown feature keys both resolve to false, never an error: gates that
// cannot prove entitlement must deny.
func HasFeature(tier PlanTier, feature Feature) bool {
	for _, f := range tierFeatures[tier] {
		if f == feature {
			return true
		}
	}
	return false
}

// Features returns the feature set for a tier. Unknown tiers get an empty
// set. The returned slice is a copy, callers may mutate it freely.
func Features(tier PlanTier) []Feature {
	src := tierFeatures[tier]
	out := make([]Feature, len(src))
	copy(out, src)
	return out
}

// MinimumTier returns the cheapest tier that unlocks a feature. Upgrade
// prompts use it to suggest the smallest jump. Returns false for feature
// keys no tier includes.
func MinimumTier(feature Feature) (PlanTier, bool) {
	best := PlanTier("")
	for tier, features := range tierFeatures {
		for _, f := range features {
			if f != feature {
				continue
			}
			if best == "" || tier.Rank() < best.Rank() {
				best = tier
			}
		}
	}
	return best, best != ""
}
