package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	appfulfillment "github.com/lexsgd/ah-ho-fruits-sub000/internal/application/fulfillment"
	"github.com/lexsgd/ah-ho-fruits-sub000/internal/domain/fulfillment"
)

// deliveryDateLayout is the wire format for delivery dates
const deliveryDateLayout = "2006-01-02"

// FulfillmentHandler handles order fulfillment API endpoints
type FulfillmentHandler struct {
	BaseHandler
	service *appfulfillment.Service
}

// NewFulfillmentHandler creates a new FulfillmentHandler
func NewFulfillmentHandler(service *appfulfillment.Service) *FulfillmentHandler {
	return &FulfillmentHandler{service: service}
}

// RegisterRoutes registers the fulfillment routes
func (h *FulfillmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.CreateOrder)
		orders.GET("/number/:orderNumber/fulfillment", h.GetFulfillmentByNumber)
		orders.GET("/:id/fulfillment", h.GetFulfillment)
		orders.GET("/:id/deliveries", h.ListDeliveries)
		orders.POST("/:id/deliveries", h.RecordDelivery)
		orders.DELETE("/:id/deliveries/:deliveryID", h.DeleteDelivery)
		orders.GET("/:id/returns", h.ListReturns)
		orders.POST("/:id/returns", h.ProcessReturn)
		orders.GET("/:id/refunds", h.ListRefunds)
		orders.GET("/:id/audit", h.ListAuditNotes)
	}
}

// TaxComponentRequest is one named tax amount on an order line
type TaxComponentRequest struct {
	Name   string `json:"name" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

// CreateOrderLineRequest is one line of a new order
type CreateOrderLineRequest struct {
	ProductName     string                `json:"product_name" binding:"required"`
	OrderedQuantity int64                 `json:"ordered_quantity" binding:"required,gt=0"`
	LineTotal       string                `json:"line_total" binding:"required"`
	TaxComponents   []TaxComponentRequest `json:"tax_components"`
}

// CreateOrderRequest is the request body for creating an order
type CreateOrderRequest struct {
	OrderNumber  string                   `json:"order_number" binding:"required"`
	CustomerName string                   `json:"customer_name" binding:"required"`
	Lines        []CreateOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// DeliveryItemRequest is one item of a delivery request
type DeliveryItemRequest struct {
	LineItemID string `json:"line_item_id" binding:"required,uuid"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

// RecordDeliveryRequest is the request body for recording a delivery
type RecordDeliveryRequest struct {
	DeliveryDate string                `json:"delivery_date" binding:"required"`
	Notes        string                `json:"notes"`
	Items        []DeliveryItemRequest `json:"items" binding:"required,min=1,dive"`
}

// ReturnItemRequest is one item of a return request
type ReturnItemRequest struct {
	LineItemID string `json:"line_item_id" binding:"required,uuid"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

// ProcessReturnRequest is the request body for processing a return
type ProcessReturnRequest struct {
	Reason         string              `json:"reason" binding:"required"`
	RefundRequired bool                `json:"refund_required"`
	Items          []ReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder creates a new order with its fixed line items
func (h *FulfillmentHandler) CreateOrder(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := appfulfillment.CreateOrderInput{
		OrderNumber:  req.OrderNumber,
		CustomerName: req.CustomerName,
	}
	for _, line := range req.Lines {
		components := make([]fulfillment.TaxComponent, 0, len(line.TaxComponents))
		for _, tax := range line.TaxComponents {
			amount, err := decimal.NewFromString(tax.Amount)
			if err != nil {
				h.BadRequest(c, "Invalid tax amount: "+tax.Amount)
				return
			}
			components = append(components, fulfillment.TaxComponent{Name: tax.Name, Amount: amount})
		}
		input.Lines = append(input.Lines, appfulfillment.CreateOrderLineInput{
			ProductName:     line.ProductName,
			OrderedQuantity: line.OrderedQuantity,
			LineTotal:       line.LineTotal,
			TaxComponents:   components,
		})
	}

	view, err := h.service.CreateOrder(c.Request.Context(), actor, input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, view)
}

// GetFulfillment returns the derived per-item table and order status
func (h *FulfillmentHandler) GetFulfillment(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	view, err := h.service.GetFulfillmentView(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, view)
}

// GetFulfillmentByNumber resolves an order by its order number
func (h *FulfillmentHandler) GetFulfillmentByNumber(c *gin.Context) {
	orderNumber := c.Param("orderNumber")
	if orderNumber == "" {
		h.BadRequest(c, "Order number is required")
		return
	}

	view, err := h.service.GetFulfillmentViewByNumber(c.Request.Context(), orderNumber)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, view)
}

// RecordDelivery validates and appends a delivery to the order's log
func (h *FulfillmentHandler) RecordDelivery(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req RecordDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	date, err := time.Parse(deliveryDateLayout, req.DeliveryDate)
	if err != nil {
		h.BadRequest(c, "Invalid delivery date, expected YYYY-MM-DD")
		return
	}

	items, err := toDeliveryRequestItems(req.Items)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	view, err := h.service.RecordDelivery(c.Request.Context(), actor, orderID, appfulfillment.RecordDeliveryInput{
		Date:  date,
		Notes: req.Notes,
		Items: items,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, view)
}

// DeleteDelivery removes a delivery record. Admin only.
func (h *FulfillmentHandler) DeleteDelivery(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	deliveryID, err := uuid.Parse(c.Param("deliveryID"))
	if err != nil {
		h.BadRequest(c, "Invalid delivery ID format")
		return
	}

	view, err := h.service.DeleteDelivery(c.Request.Context(), actor, orderID, deliveryID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, view)
}

// ProcessReturn records a return and its refund transaction
func (h *FulfillmentHandler) ProcessReturn(c *gin.Context) {
	actor, err := getActor(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	var req ProcessReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	items := make([]fulfillment.ReturnRequestItem, 0, len(req.Items))
	for _, item := range req.Items {
		lineItemID, err := uuid.Parse(item.LineItemID)
		if err != nil {
			h.BadRequest(c, "Invalid line item ID format")
			return
		}
		items = append(items, fulfillment.ReturnRequestItem{
			LineItemID: lineItemID,
			Quantity:   item.Quantity,
		})
	}

	view, err := h.service.ProcessReturn(c.Request.Context(), actor, orderID, appfulfillment.ProcessReturnInput{
		Reason:         req.Reason,
		RefundRequired: req.RefundRequired,
		Items:          items,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, view)
}

// ListDeliveries returns the order's delivery log
func (h *FulfillmentHandler) ListDeliveries(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	deliveries, err := h.service.ListDeliveries(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, deliveries)
}

// ListReturns returns the order's return log
func (h *FulfillmentHandler) ListReturns(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	returns, err := h.service.ListReturns(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, returns)
}

// ListRefunds returns the refund ledger entries created for the order
func (h *FulfillmentHandler) ListRefunds(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	refunds, err := h.service.ListRefunds(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, refunds)
}

// ListAuditNotes returns the order's activity history
func (h *FulfillmentHandler) ListAuditNotes(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	notes, err := h.service.ListAuditNotes(c.Request.Context(), orderID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, notes)
}

func toDeliveryRequestItems(items []DeliveryItemRequest) ([]fulfillment.DeliveryRequestItem, error) {
	converted := make([]fulfillment.DeliveryRequestItem, 0, len(items))
	for _, item := range items {
		lineItemID, err := uuid.Parse(item.LineItemID)
		if err != nil {
			return nil, err
		}
		converted = append(converted, fulfillment.DeliveryRequestItem{
			LineItemID: lineItemID,
			Quantity:   item.Quantity,
		})
	}
	return converted, nil
}
