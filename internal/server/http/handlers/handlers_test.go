package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/vkruglov/coursepay/internal/domain/errors"
	"github.com/vkruglov/coursepay/internal/domain/model"
	"github.com/vkruglov/coursepay/internal/server/http/dto"
	"github.com/vkruglov/coursepay/internal/server/http/middleware"
	testhelpers "github.com/vkruglov/coursepay/internal/test"
	"github.com/vkruglov/coursepay/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func authAs(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDContextKey, userID)
		c.Next()
	}
}

func performJSON(t *testing.T, router *gin.Engine, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Reader
	switch v := payload.(type) {
	case nil:
		body = bytes.NewReader(nil)
	case string:
		body = bytes.NewReader([]byte(v))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAuthHandlerRegister(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		stub   testhelpers.AuthFacadeStub
		status int
	}{
		{
			name: "success",
			body: dto.AuthRequest{
				Login:    testhelpers.RandomASCIIString(7, 14),
				Password: testhelpers.RandomASCIIString(16, 32),
			},
			status: http.StatusOK,
		},
		{
			name:   "bad payload",
			body:   "{broken",
			status: http.StatusBadRequest,
		},
		{
			name: "invalid credentials",
			body: dto.AuthRequest{Login: "user", Password: "pass"},
			stub: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
				return "", domainErrors.ErrInvalidCredentials
			}},
			status: http.StatusBadRequest,
		},
		{
			name: "conflict",
			body: dto.AuthRequest{Login: "user", Password: "pass"},
			stub: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
				return "", domainErrors.ErrAlreadyExists
			}},
			status: http.StatusConflict,
		},
		{
			name: "internal error",
			body: dto.AuthRequest{Login: "user", Password: "pass"},
			stub: testhelpers.AuthFacadeStub{RegisterFn: func(context.Context, string, string) (string, error) {
				return "", errors.New("boom")
			}},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/register", NewAuthHandler(tc.stub).Register)
			resp := performJSON(t, router, http.MethodPost, "/register", tc.body)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			if tc.status == http.StatusOK && resp.Header().Get("Authorization") == "" {
				t.Fatal("expected auth header on success")
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	router := gin.New()
	router.POST("/login", NewAuthHandler(testhelpers.AuthFacadeStub{}).Login)
	resp := performJSON(t, router, http.MethodPost, "/login", dto.AuthRequest{Login: "user", Password: "pass"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	router = gin.New()
	router.POST("/login", NewAuthHandler(testhelpers.AuthFacadeStub{AuthenticateFn: func(context.Context, string, string) (string, error) {
		return "", domainErrors.ErrInvalidCredentials
	}}).Login)
	resp = performJSON(t, router, http.MethodPost, "/login", dto.AuthRequest{Login: "user", Password: "bad"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestOrderHandlerCreate(t *testing.T) {
	cases := []struct {
		name   string
		body   any
		stub   testhelpers.OrderFacadeStub
		status int
	}{
		{
			name:   "created",
			body:   dto.CreateOrderRequest{CourseID: 1, Amount: 4900},
			status: http.StatusCreated,
		},
		{
			name:   "bad payload",
			body:   "{broken",
			status: http.StatusBadRequest,
		},
		{
			name: "course not found",
			body: dto.CreateOrderRequest{CourseID: 99, Amount: 4900},
			stub: testhelpers.OrderFacadeStub{CreateOrderFn: func(context.Context, int64, int64, int64) (*model.Order, error) {
				return nil, domainErrors.ErrCourseNotFound
			}},
			status: http.StatusNotFound,
		},
		{
			name: "invalid amount",
			body: dto.CreateOrderRequest{CourseID: 1, Amount: 5},
			stub: testhelpers.OrderFacadeStub{CreateOrderFn: func(context.Context, int64, int64, int64) (*model.Order, error) {
				return nil, domainErrors.ErrInvalidAmount
			}},
			status: http.StatusUnprocessableEntity,
		},
		{
			name: "gateway unavailable",
			body: dto.CreateOrderRequest{CourseID: 1, Amount: 4900},
			stub: testhelpers.OrderFacadeStub{CreateOrderFn: func(context.Context, int64, int64, int64) (*model.Order, error) {
				return nil, domainErrors.ErrGatewayUnavailable
			}},
			status: http.StatusBadGateway,
		},
		{
			name: "internal error",
			body: dto.CreateOrderRequest{CourseID: 1, Amount: 4900},
			stub: testhelpers.OrderFacadeStub{CreateOrderFn: func(context.Context, int64, int64, int64) (*model.Order, error) {
				return nil, errors.New("boom")
			}},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/orders", authAs(7), NewOrderHandler(tc.stub).Create)
			resp := performJSON(t, router, http.MethodPost, "/orders", tc.body)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
			if tc.status == http.StatusCreated {
				var order dto.OrderResponse
				if err := json.Unmarshal(resp.Body.Bytes(), &order); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if order.OrderID == "" || order.Status != string(model.OrderStatusCreated) {
					t.Fatalf("unexpected response: %+v", order)
				}
			}
		})
	}
}

func TestOrderHandlerList(t *testing.T) {
	router := gin.New()
	router.GET("/orders", authAs(7), NewOrderHandler(testhelpers.OrderFacadeStub{}).List)
	resp := performJSON(t, router, http.MethodGet, "/orders", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var orders []dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &orders); err != nil || len(orders) != 1 {
		t.Fatalf("unexpected body: %s err=%v", resp.Body.String(), err)
	}

	router = gin.New()
	router.GET("/orders", authAs(7), NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(context.Context, int64) ([]model.Order, error) {
		return nil, nil
	}}).List)
	resp = performJSON(t, router, http.MethodGet, "/orders", nil)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}

	router = gin.New()
	router.GET("/orders", authAs(7), NewOrderHandler(testhelpers.OrderFacadeStub{OrdersFn: func(context.Context, int64) ([]model.Order, error) {
		return nil, errors.New("boom")
	}}).List)
	resp = performJSON(t, router, http.MethodGet, "/orders", nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestOrderHandlerGet(t *testing.T) {
	router := gin.New()
	router.GET("/orders/:orderID", authAs(7), NewOrderHandler(testhelpers.OrderFacadeStub{}).Get)
	resp := performJSON(t, router, http.MethodGet, "/orders/ord-1", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var order dto.OrderResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &order); err != nil || order.OrderID != "ord-1" {
		t.Fatalf("unexpected body: %s err=%v", resp.Body.String(), err)
	}

	router = gin.New()
	router.GET("/orders/:orderID", authAs(7), NewOrderHandler(testhelpers.OrderFacadeStub{OrderFn: func(context.Context, int64, string) (*model.Order, error) {
		return nil, domainErrors.ErrOrderNotFound
	}}).Get)
	resp = performJSON(t, router, http.MethodGet, "/orders/ord-1", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}

	router = gin.New()
	router.GET("/orders/:orderID", authAs(7), NewOrderHandler(testhelpers.OrderFacadeStub{OrderFn: func(context.Context, int64, string) (*model.Order, error) {
		return nil, errors.New("boom")
	}}).Get)
	resp = performJSON(t, router, http.MethodGet, "/orders/ord-1", nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestPaymentHandlerVerify(t *testing.T) {
	proof := dto.PaymentProofRequest{PaymentID: "pay-1", Signature: "sig"}

	cases := []struct {
		name   string
		body   any
		stub   testhelpers.PaymentFacadeStub
		status int
	}{
		{name: "success", body: proof, status: http.StatusOK},
		{name: "bad payload", body: "{broken", status: http.StatusBadRequest},
		{name: "missing proof", body: dto.PaymentProofRequest{}, status: http.StatusBadRequest},
		{
			name: "invalid signature",
			body: proof,
			stub: testhelpers.PaymentFacadeStub{ResolveFn: func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error) {
				return nil, domainErrors.ErrInvalidSignature
			}},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown order",
			body: proof,
			stub: testhelpers.PaymentFacadeStub{ResolveFn: func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error) {
				return nil, domainErrors.ErrOrderNotFound
			}},
			status: http.StatusNotFound,
		},
		{
			name: "expired",
			body: proof,
			stub: testhelpers.PaymentFacadeStub{ResolveFn: func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error) {
				return nil, domainErrors.ErrOrderExpired
			}},
			status: http.StatusGone,
		},
		{
			name: "terminal",
			body: proof,
			stub: testhelpers.PaymentFacadeStub{ResolveFn: func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error) {
				return nil, domainErrors.ErrOrderNotVerifiable
			}},
			status: http.StatusGone,
		},
		{
			name: "internal",
			body: proof,
			stub: testhelpers.PaymentFacadeStub{ResolveFn: func(context.Context, int64, string, string, string) (*usecase.EnrollmentResult, error) {
				return nil, errors.New("boom")
			}},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/orders/:orderID/verify", authAs(7), NewPaymentHandler(tc.stub).Verify)
			resp := performJSON(t, router, http.MethodPost, "/orders/ord-1/verify", tc.body)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestPaymentHandlerVerifyReplay(t *testing.T) {
	stub := testhelpers.PaymentFacadeStub{ResolveFn: func(_ context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error) {
		if actorID != 7 || orderID != "ord-1" || paymentID != "pay-1" {
			return nil, errors.New("unexpected arguments")
		}
		return &usecase.EnrollmentResult{
			Order:         &model.Order{ID: orderID, CourseID: 3, Status: model.OrderStatusEnrolled},
			Enrollment:    &model.Enrollment{SourceOrderID: orderID, EnrolledAt: time.Unix(100, 0)},
			TotalEnrolled: 9,
			Replayed:      true,
		}, nil
	}}

	router := gin.New()
	router.POST("/orders/:orderID/verify", authAs(7), NewPaymentHandler(stub).Verify)
	resp := performJSON(t, router, http.MethodPost, "/orders/ord-1/verify", dto.PaymentProofRequest{PaymentID: "pay-1", Signature: "sig"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var body dto.EnrollmentResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Replayed || body.TotalEnrolled != 9 || body.CourseID != 3 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestPaymentHandlerCancel(t *testing.T) {
	cases := []struct {
		name   string
		stub   testhelpers.PaymentFacadeStub
		status int
	}{
		{name: "success", status: http.StatusOK},
		{
			name: "not found",
			stub: testhelpers.PaymentFacadeStub{CancelFn: func(context.Context, int64, string) error {
				return domainErrors.ErrOrderNotFound
			}},
			status: http.StatusNotFound,
		},
		{
			name: "already resolved",
			stub: testhelpers.PaymentFacadeStub{CancelFn: func(context.Context, int64, string) error {
				return domainErrors.ErrOrderAlreadyResolved
			}},
			status: http.StatusConflict,
		},
		{
			name: "terminal",
			stub: testhelpers.PaymentFacadeStub{CancelFn: func(context.Context, int64, string) error {
				return domainErrors.ErrOrderNotVerifiable
			}},
			status: http.StatusGone,
		},
		{
			name: "internal",
			stub: testhelpers.PaymentFacadeStub{CancelFn: func(context.Context, int64, string) error {
				return errors.New("boom")
			}},
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/orders/:orderID/cancel", authAs(7), NewPaymentHandler(tc.stub).Cancel)
			resp := performJSON(t, router, http.MethodPost, "/orders/ord-1/cancel", nil)
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestWebhookHandlerPayment(t *testing.T) {
	t.Run("succeeded", func(t *testing.T) {
		var gotActor int64 = -1
		stub := testhelpers.PaymentFacadeStub{ResolveFn: func(_ context.Context, actorID int64, orderID, paymentID, signature string) (*usecase.EnrollmentResult, error) {
			gotActor = actorID
			return &usecase.EnrollmentResult{
				Order:      &model.Order{ID: orderID, Status: model.OrderStatusEnrolled},
				Enrollment: &model.Enrollment{SourceOrderID: orderID},
			}, nil
		}}
		router := gin.New()
		router.POST("/webhooks/payment", NewWebhookHandler(stub).Payment)
		resp := performJSON(t, router, http.MethodPost, "/webhooks/payment", dto.PaymentWebhookRequest{
			Event: "payment.succeeded", OrderID: "ord-1", PaymentID: "pay-1", Signature: "sig",
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if gotActor != usecase.SystemActor {
			t.Fatalf("webhook must resolve as system actor, got %d", gotActor)
		}
	})

	t.Run("failed", func(t *testing.T) {
		var gotReason string
		stub := testhelpers.PaymentFacadeStub{FailFn: func(_ context.Context, orderID, reason string) error {
			gotReason = reason
			return nil
		}}
		router := gin.New()
		router.POST("/webhooks/payment", NewWebhookHandler(stub).Payment)
		resp := performJSON(t, router, http.MethodPost, "/webhooks/payment", dto.PaymentWebhookRequest{
			Event: "payment.failed", OrderID: "ord-1", Reason: "card declined",
		})
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		if gotReason != "card declined" {
			t.Fatalf("unexpected reason: %q", gotReason)
		}
	})

	t.Run("failed conflict", func(t *testing.T) {
		stub := testhelpers.PaymentFacadeStub{FailFn: func(context.Context, string, string) error {
			return domainErrors.ErrOrderAlreadyResolved
		}}
		router := gin.New()
		router.POST("/webhooks/payment", NewWebhookHandler(stub).Payment)
		resp := performJSON(t, router, http.MethodPost, "/webhooks/payment", dto.PaymentWebhookRequest{
			Event: "payment.failed", OrderID: "ord-1",
		})
		if resp.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", resp.Code)
		}
	})

	t.Run("unknown event", func(t *testing.T) {
		router := gin.New()
		router.POST("/webhooks/payment", NewWebhookHandler(testhelpers.PaymentFacadeStub{}).Payment)
		resp := performJSON(t, router, http.MethodPost, "/webhooks/payment", dto.PaymentWebhookRequest{
			Event: "payment.unknown", OrderID: "ord-1",
		})
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}
	})

	t.Run("bad payload", func(t *testing.T) {
		router := gin.New()
		router.POST("/webhooks/payment", NewWebhookHandler(testhelpers.PaymentFacadeStub{}).Payment)
		resp := performJSON(t, router, http.MethodPost, "/webhooks/payment", "{broken")
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.Code)
		}
	})
}

func TestCourseHandlerList(t *testing.T) {
	router := gin.New()
	router.GET("/courses", NewCourseHandler(testhelpers.CourseFacadeStub{}).List)
	resp := performJSON(t, router, http.MethodGet, "/courses", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var courses []dto.CourseResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &courses); err != nil || len(courses) != 1 {
		t.Fatalf("unexpected body: %s err=%v", resp.Body.String(), err)
	}

	router = gin.New()
	router.GET("/courses", NewCourseHandler(testhelpers.CourseFacadeStub{CoursesFn: func(context.Context) ([]model.Course, error) {
		return nil, errors.New("boom")
	}}).List)
	resp = performJSON(t, router, http.MethodGet, "/courses", nil)
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.Code)
	}
}

func TestCurrentUserID(t *testing.T) {
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	if id := CurrentUserID(c); id != 0 {
		t.Fatalf("expected zero without auth, got %d", id)
	}
	c.Set(middleware.UserIDContextKey, int64(42))
	if id := CurrentUserID(c); id != 42 {
		t.Fatalf("expected 42, got %d", id)
	}
}
