package model

import (
	"testing"
	"time"
)

func TestOrderStatusValues(t *testing.T) {
	cases := []struct {
		name  string
		got   OrderStatus
		value string
	}{
		{"created", OrderStatusCreated, "CREATED"},
		{"verifying", OrderStatusVerifying, "VERIFYING"},
		{"verified", OrderStatusVerified, "VERIFIED"},
		{"enrolled", OrderStatusEnrolled, "ENROLLED"},
		{"cancelled", OrderStatusCancelled, "CANCELLED"},
		{"failed", OrderStatusFailed, "FAILED"},
		{"expired", OrderStatusExpired, "EXPIRED"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if string(tc.got) != tc.value {
				t.Fatalf("expected %s, got %s", tc.value, tc.got)
			}
		})
	}
}

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		status     OrderStatus
		terminal   bool
		verifiable bool
	}{
		{OrderStatusCreated, false, true},
		{OrderStatusVerifying, false, true},
		{OrderStatusVerified, false, false},
		{OrderStatusEnrolled, true, false},
		{OrderStatusCancelled, true, false},
		{OrderStatusFailed, true, false},
		{OrderStatusExpired, true, false},
	}

	for _, tc := range cases {
		if tc.status.Terminal() != tc.terminal {
			t.Fatalf("%s: expected terminal=%v", tc.status, tc.terminal)
		}
		if tc.status.Verifiable() != tc.verifiable {
			t.Fatalf("%s: expected verifiable=%v", tc.status, tc.verifiable)
		}
	}
}

func TestOrderDelegatesToStatus(t *testing.T) {
	order := &Order{Status: OrderStatusEnrolled, ExpiresAt: time.Now()}
	if !order.Terminal() || order.Verifiable() {
		t.Fatalf("unexpected transitions for %s", order.Status)
	}

	order.Status = OrderStatusVerifying
	if order.Terminal() || !order.Verifiable() {
		t.Fatalf("unexpected transitions for %s", order.Status)
	}
}
