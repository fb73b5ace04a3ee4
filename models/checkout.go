package models

// CheckoutStepStatus tags the outcome of one step of the automated flow.
type CheckoutStepStatus string

const (
	StepSkipped CheckoutStepStatus = "skipped"
	StepSuccess CheckoutStepStatus = "success"
	StepFailed  CheckoutStepStatus = "failed"
	StepBlocked CheckoutStepStatus = "blocked"
)

// CheckoutBlocker names a known condition that prevents reaching checkout.
type CheckoutBlocker string

const (
	BlockerLoginRequired     CheckoutBlocker = "login_required"
	BlockerRegionRestriction CheckoutBlocker = "region_restriction"
	BlockerPasswordProtected CheckoutBlocker = "password_protected"
	BlockerOutOfStock        CheckoutBlocker = "out_of_stock"
	BlockerCaptcha           CheckoutBlocker = "captcha"
)

// CheckoutFlowResult is built incrementally across the automated flow and
// read once by the orchestrator. A failed step halts the remaining
// sequence; later steps stay StepSkipped.
type CheckoutFlowResult struct {
	VariantSelection   CheckoutStepStatus
	AddToCart          CheckoutStepStatus
	CartNavigation     CheckoutStepStatus
	CheckoutNavigation CheckoutStepStatus
	Blocker            CheckoutBlocker // set when CheckoutNavigation is StepBlocked
	Errors             []string
}

// NewCheckoutFlowResult returns a result with every step marked skipped.
func NewCheckoutFlowResult() *CheckoutFlowResult {
	return &CheckoutFlowResult{
		VariantSelection:   StepSkipped,
		AddToCart:          StepSkipped,
		CartNavigation:     StepSkipped,
		CheckoutNavigation: StepSkipped,
	}
}

// AddError records a non-fatal automation error for diagnosis.
func (r *CheckoutFlowResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// Reached reports how far the flow got, for the audit summary.
func (r *CheckoutFlowResult) Reached() PageType {
	switch {
	case r.CheckoutNavigation == StepSuccess:
		return PageCheckout
	case r.CartNavigation == StepSuccess:
		return PageCart
	default:
		return PagePdp
	}
}
