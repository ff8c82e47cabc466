package billing

import (
	"net/http"
	"net/mail"
	"net/url"
	"strconv"

	"github.com/Ealanisln/vetify-sub011/handler"
	"github.com/Ealanisln/vetify-sub011/pkg/audit"
	"github.com/Ealanisln/vetify-sub011/pkg/qrcode"
	"github.com/Ealanisln/vetify-sub011/pkg/sanitizer"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
)

// QR edge length bounds in pixels. Zero means the generator default.
const (
	minQRSize = 64
	maxQRSize = 1024
)

type planList struct {
	Plans []subscription.Plan `json:"plans"`
}

func (s *Service) plans(ctx handler.Context, _ struct{}) handler.Response {
	return handler.JSON(planList{Plans: s.subs.Plans()})
}

func (s *Service) status(ctx handler.Context, _ struct{}) handler.Response {
	id, err := tenantID(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	status, err := s.subs.Status(ctx, id)
	if err != nil {
		return handler.JSONError(domainError(err))
	}
	return handler.JSON(status)
}

type featureRequest struct {
	Feature string `path:"feature"`
}

type featureStatus struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

// feature reports entitlement for a single feature key. Unknown keys are
// simply not entitled, never errors.
func (s *Service) feature(ctx handler.Context, req featureRequest) handler.Response {
	id, err := tenantID(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	return handler.JSON(featureStatus{
		Feature: req.Feature,
		Enabled: s.subs.CheckFeature(ctx, id, subscription.Feature(req.Feature)),
	})
}

// upgradeResponse flattens the engine result under a success flag.
type upgradeResponse struct {
	Success bool `json:"success"`
	*subscription.UpgradeResult
}

func (s *Service) upgrade(ctx handler.Context, req subscription.UpgradeRequest) handler.Response {
	id, err := tenantID(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	if valErr := validateUpgrade(&req); !valErr.IsEmpty() {
		return handler.JSONError(valErr)
	}

	result, err := s.subs.Upgrade(ctx, id, req)
	if err != nil {
		s.instr.UpgradeProcessed("rejected", false)
		return handler.JSONError(domainError(err))
	}

	s.instr.UpgradeProcessed(string(result.Type), true)
	return handler.JSON(upgradeResponse{Success: true, UpgradeResult: result})
}

// validateUpgrade normalizes the request in place and collects field
// errors. The engine validates again; this pass exists to answer with
// field-level details instead of a bare error code.
func validateUpgrade(req *subscription.UpgradeRequest) handler.ValidationError {
	valErr := handler.NewValidationError()

	if tier, ok := subscription.ParseTier(string(req.TargetTier)); ok {
		req.TargetTier = tier
	} else {
		valErr.Add("target_plan", "unknown plan")
	}

	if interval, ok := subscription.ParseInterval(string(req.Interval)); ok {
		req.Interval = interval
	} else {
		valErr.Add("billing_interval", "must be monthly or annual")
	}

	req.Email = sanitizer.NormalizeEmail(req.Email)
	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			valErr.Add("email", "invalid format")
		}
	}

	for field, raw := range map[string]string{
		"success_url": req.SuccessURL,
		"cancel_url":  req.CancelURL,
	} {
		if raw == "" {
			continue
		}
		if parsed, err := url.Parse(raw); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			valErr.Add(field, "must be an absolute http(s) URL")
		}
	}

	return valErr
}

type qrRequest struct {
	Plan     string `query:"plan"`
	Interval string `query:"interval"`
	Size     int    `query:"size"`
}

// upgradeQR renders a conversion checkout link as a PNG QR code so the
// front desk can hand the upgrade to the owner's phone. Paid tenants
// change plans instantly through POST /upgrade, so for them there is no
// checkout to render and the route answers 409.
func (s *Service) upgradeQR(ctx handler.Context, req qrRequest) handler.Response {
	id, err := tenantID(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	valErr := handler.NewValidationError()
	tier, tierOK := subscription.ParseTier(req.Plan)
	if !tierOK {
		valErr.Add("plan", "unknown plan")
	}
	interval, intervalOK := subscription.ParseInterval(req.Interval)
	if !intervalOK {
		valErr.Add("interval", "must be monthly or annual")
	}
	if req.Size != 0 && (req.Size < minQRSize || req.Size > maxQRSize) {
		valErr.Add("size", "must be between 64 and 1024")
	}
	if !valErr.IsEmpty() {
		return handler.JSONError(valErr)
	}

	link, err := s.subs.CheckoutLink(ctx, id, subscription.UpgradeRequest{
		TargetTier: tier,
		Interval:   interval,
	})
	if err != nil {
		s.instr.UpgradeProcessed("rejected", false)
		return handler.JSONError(domainError(err))
	}
	s.instr.UpgradeProcessed(string(subscription.UpgradeTrialConversion), true)

	png, err := qrcode.PNG(link.URL, req.Size)
	if err != nil {
		return handler.JSONError(err)
	}
	return pngResponse{data: png}
}

type eventsRequest struct {
	Limit int `query:"limit"`
}

type eventList struct {
	Events []audit.Entry `json:"events"`
}

// events returns the clinic's subscription history, newest first. The
// trail store caps oversized limits itself.
func (s *Service) events(ctx handler.Context, req eventsRequest) handler.Response {
	id, err := tenantID(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	if req.Limit < 0 {
		valErr := handler.NewValidationError()
		valErr.Add("limit", "must not be negative")
		return handler.JSONError(valErr)
	}

	entries, err := s.trail.List(ctx, id, req.Limit)
	if err != nil {
		return handler.JSONError(err)
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return handler.JSON(eventList{Events: entries})
}

func (s *Service) portal(ctx handler.Context, _ struct{}) handler.Response {
	id, err := tenantID(ctx)
	if err != nil {
		return handler.JSONError(err)
	}

	link, err := s.subs.PortalLink(ctx, id)
	if err != nil {
		return handler.JSONError(domainError(err))
	}
	return handler.Redirect(link.URL)
}

// pngResponse renders raw PNG bytes. Checkout links are per-tenant
// secrets, so caches must not hold the image.
type pngResponse struct {
	data []byte
}

func (p pngResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(p.data)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(p.data)
	return err
}
