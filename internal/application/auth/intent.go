package auth

import "context"

// Intent is the closed set of operations the orchestrator performs:
// SendCode, VerifyCode and Onboard. Each intent routes itself to the matching
// intentHandler method, so adding an intent without handling it does not compile.
type Intent interface {
	dispatch(ctx context.Context, h intentHandler) (*Outcome, error)
}

type intentHandler interface {
	sendCode(ctx context.Context, in SendCode) (*Outcome, error)
	verifyCode(ctx context.Context, in VerifyCode) (*Outcome, error)
	onboard(ctx context.Context, in Onboard) (*Outcome, error)
}

// SendCode issues a login code for Email and delivers it out of band.
type SendCode struct {
	Email string
}

// VerifyCode redeems Code for the verification stored under (Type, Target).
type VerifyCode struct {
	Code   string
	Target string
	Type   string
}

// Onboard creates the account for a verified email, or logs in an existing one.
type Onboard struct {
	Email string
	Name  string
}

func (in SendCode) dispatch(ctx context.Context, h intentHandler) (*Outcome, error) {
	return h.sendCode(ctx, in)
}

func (in VerifyCode) dispatch(ctx context.Context, h intentHandler) (*Outcome, error) {
	return h.verifyCode(ctx, in)
}

func (in Onboard) dispatch(ctx context.Context, h intentHandler) (*Outcome, error) {
	return h.onboard(ctx, in)
}
