package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/digitallifelessons/lifelessons-server/internal/service"
)

func (s *Server) registerPaymentRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createCheckoutSession",
		Method:      http.MethodPost,
		Path:        "/create-checkout-session",
		Summary:     "Start premium checkout",
		Description: "Creates a payment processor checkout session for the caller's premium upgrade",
		Tags:        []string{"Payment"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateCheckoutSession)

	huma.Register(s.api, huma.Operation{
		OperationID: "paymentSuccess",
		Method:      http.MethodPatch,
		Path:        "/payment_success",
		Summary:     "Reconcile checkout",
		Description: "Upgrades the session's customer to premium once the processor reports the session paid",
		Tags:        []string{"Payment"},
	}, s.handlePaymentSuccess)
}

// CheckoutOutput wraps a created checkout session.
type CheckoutOutput struct {
	Body *service.Checkout
}

// PaymentSuccessInput names the session to reconcile.
type PaymentSuccessInput struct {
	SessionID string `query:"session_id" doc:"Checkout session ID"`
}

func (s *Server) handleCreateCheckoutSession(ctx context.Context, _ *struct{}) (*CheckoutOutput, error) {
	email, err := requireEmail(ctx)
	if err != nil {
		return nil, err
	}

	checkout, err := s.services.Payments.CreateCheckout(ctx, email)
	if err != nil {
		return nil, err
	}
	return &CheckoutOutput{Body: checkout}, nil
}

func (s *Server) handlePaymentSuccess(ctx context.Context, input *PaymentSuccessInput) (*UserMessageOutput, error) {
	user, err := s.services.Payments.Reconcile(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	return &UserMessageOutput{
		Body: UserMessageResponse{Message: "User upgraded to premium", User: user},
	}, nil
}
