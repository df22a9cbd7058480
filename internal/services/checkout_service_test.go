package services_test

import (
	"context"
	"fmt"
	"testing"

	"pasarumkm/internal/gateway"
	"pasarumkm/internal/models"
	"pasarumkm/internal/repositories"
	"pasarumkm/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOrderRepository is a mock implementation of repositories.OrderRepository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(order *models.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*models.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) GetAll() ([]models.Order, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *MockOrderRepository) Update(id string, fields map[string]interface{}) error {
	args := m.Called(id, fields)
	return args.Error(0)
}

// MockInvoiceGateway is a mock implementation of services.InvoiceGateway
type MockInvoiceGateway struct {
	mock.Mock
}

func (m *MockInvoiceGateway) CreateInvoice(ctx context.Context, req gateway.InvoiceRequest) (*gateway.Invoice, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Invoice), args.Error(1)
}

func (m *MockInvoiceGateway) VerifyCallbackToken(provided string) bool {
	args := m.Called(provided)
	return args.Bool(0)
}

func checkoutRequestFixture() services.CheckoutRequest {
	return services.CheckoutRequest{
		UserID:          "user-1",
		CustomerName:    "Budi",
		CustomerEmail:   "budi@example.com",
		CustomerPhone:   "+628123456789",
		CustomerAddress: "Jl. Merdeka No. 1, Bandung",
		CartItems: []services.CheckoutItem{
			{ProductName: "Kopi", UMKMName: "Kopi Nusantara", Price: 15000, Quantity: 2},
			{ProductName: "Keripik", UMKMName: "Snack Ibu Ani", Price: 10000, Quantity: 3},
		},
	}
}

func TestCheckoutService_Checkout_ComputesTotal(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	var createdOrder *models.Order
	mockRepo.On("Create", mock.AnythingOfType("*models.Order")).Run(func(args mock.Arguments) {
		createdOrder = args.Get(0).(*models.Order)
	}).Return(nil).Once()

	mockGateway.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req gateway.InvoiceRequest) bool {
		return req.Amount == 60000 // 2*15000 + 3*10000
	})).Return(&gateway.Invoice{
		ID:         "inv_1",
		InvoiceURL: "https://checkout.example.com/inv_1",
		Status:     "PENDING",
	}, nil).Once()

	mockRepo.On("Update", mock.AnythingOfType("string"), mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["invoice_id"] == "inv_1"
	})).Return(nil).Once()

	result, err := service.Checkout(context.Background(), checkoutRequestFixture())

	assert.NoError(t, err)
	assert.Equal(t, int64(60000), createdOrder.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, createdOrder.Status)
	assert.Equal(t, models.PaymentStatusPending, createdOrder.PaymentStatus)
	assert.Equal(t, createdOrder.ID, result.OrderID)
	assert.Equal(t, "inv_1", result.InvoiceID)
	assert.Equal(t, "https://checkout.example.com/inv_1", result.InvoiceURL)
	mockRepo.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestCheckoutService_Checkout_InvalidRequest(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	// Empty cart
	req := checkoutRequestFixture()
	req.CartItems = nil
	result, err := service.Checkout(context.Background(), req)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	// Missing customer fields
	req = checkoutRequestFixture()
	req.CustomerEmail = ""
	result, err = service.Checkout(context.Background(), req)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	// Zero quantity
	req = checkoutRequestFixture()
	req.CartItems[0].Quantity = 0
	result, err = service.Checkout(context.Background(), req)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, services.ErrInvalidRequest)

	// Validation failures must leave no side effects.
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
	mockGateway.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_OrderCreationFails(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	mockRepo.On("Create", mock.Anything).Return(fmt.Errorf("database error")).Once()

	result, err := service.Checkout(context.Background(), checkoutRequestFixture())

	assert.Nil(t, result)
	assert.ErrorIs(t, err, services.ErrOrderCreationFailed)
	// No invoice may be attempted when the order row does not exist.
	mockGateway.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestCheckoutService_Checkout_InvoiceCreationFails(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	var createdOrder *models.Order
	mockRepo.On("Create", mock.AnythingOfType("*models.Order")).Run(func(args mock.Arguments) {
		createdOrder = args.Get(0).(*models.Order)
	}).Return(nil).Once()
	mockGateway.On("CreateInvoice", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: status 503", gateway.ErrGatewayUnavailable)).Once()

	result, err := service.Checkout(context.Background(), checkoutRequestFixture())

	// The order survives and its id travels with the error.
	assert.ErrorIs(t, err, services.ErrInvoiceCreationFailed)
	assert.NotNil(t, result)
	assert.Equal(t, createdOrder.ID, result.OrderID)
	assert.Empty(t, result.InvoiceID)
	assert.Equal(t, models.OrderStatusPending, createdOrder.Status)
	assert.Equal(t, models.PaymentStatusPending, createdOrder.PaymentStatus)
	assert.Nil(t, createdOrder.InvoiceID)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCheckoutService_Checkout_InvoiceLinkPatchFails(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	mockRepo.On("Create", mock.Anything).Return(nil).Once()
	mockGateway.On("CreateInvoice", mock.Anything, mock.Anything).Return(&gateway.Invoice{
		ID:         "inv_1",
		InvoiceURL: "https://checkout.example.com/inv_1",
	}, nil).Once()
	mockRepo.On("Update", mock.Anything, mock.Anything).Return(fmt.Errorf("database error")).Once()

	result, err := service.Checkout(context.Background(), checkoutRequestFixture())

	// The buyer already has a payment URL; the unlinked invoice is a logged
	// reconciliation gap, not a checkout failure.
	assert.NoError(t, err)
	assert.Equal(t, "inv_1", result.InvoiceID)
	mockRepo.AssertExpectations(t)
}

func TestCheckoutService_RetryInvoice_AlreadyIssued(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	invoiceID := "inv_existing"
	mockRepo.On("GetByID", "order-1").Return(&models.Order{
		ID:         "order-1",
		InvoiceID:  &invoiceID,
		InvoiceURL: "https://checkout.example.com/inv_existing",
	}, nil).Once()

	result, err := service.RetryInvoice(context.Background(), "order-1")

	assert.NoError(t, err)
	assert.Equal(t, "inv_existing", result.InvoiceID)
	assert.Equal(t, "https://checkout.example.com/inv_existing", result.InvoiceURL)
	// An order that already has an invoice must never get a duplicate.
	mockGateway.AssertNotCalled(t, "CreateInvoice", mock.Anything, mock.Anything)
}

func TestCheckoutService_RetryInvoice_IssuesAndLinks(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	mockRepo.On("GetByID", "order-1").Return(&models.Order{
		ID:            "order-1",
		UserID:        "user-1",
		TotalAmount:   30000,
		Status:        models.OrderStatusPending,
		PaymentStatus: models.PaymentStatusPending,
		CustomerName:  "Budi",
		CustomerEmail: "budi@example.com",
		CustomerPhone: "+628123456789",
		Address:       "Jl. Merdeka No. 1, Bandung",
		Items: []models.OrderItem{
			{ProductName: "Kopi", Price: 15000, Quantity: 2},
		},
	}, nil).Once()
	mockGateway.On("CreateInvoice", mock.Anything, mock.MatchedBy(func(req gateway.InvoiceRequest) bool {
		return req.ExternalID == "order-1" && req.Amount == 30000
	})).Return(&gateway.Invoice{ID: "inv_2", InvoiceURL: "https://checkout.example.com/inv_2"}, nil).Once()
	mockRepo.On("Update", "order-1", mock.MatchedBy(func(fields map[string]interface{}) bool {
		return fields["invoice_id"] == "inv_2"
	})).Return(nil).Once()

	result, err := service.RetryInvoice(context.Background(), "order-1")

	assert.NoError(t, err)
	assert.Equal(t, "inv_2", result.InvoiceID)
	mockRepo.AssertExpectations(t)
	mockGateway.AssertExpectations(t)
}

func TestCheckoutService_RetryInvoice_OrderNotFound(t *testing.T) {
	mockRepo := new(MockOrderRepository)
	mockGateway := new(MockInvoiceGateway)
	service := services.NewCheckoutService(mockRepo, mockGateway, nil)

	mockRepo.On("GetByID", "missing").Return(nil, repositories.ErrOrderNotFound).Once()

	result, err := service.RetryInvoice(context.Background(), "missing")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, repositories.ErrOrderNotFound)
}
