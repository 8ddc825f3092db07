package bakery

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hupe1980/agentdesk/archive"
	"github.com/hupe1980/agentdesk/core"
	"github.com/hupe1980/agentdesk/tool"
)

// Tool names.
const (
	ToolGetCakeInventory         = "get_cake_inventory"
	ToolCalculateCustomCakePrice = "calculate_custom_cake_price"
	ToolGetFAQ                   = "get_faq"
	ToolGetCustomerByPhone       = "get_customer_by_phone"
	ToolUpdateCustomerName       = "update_customer_name"
	ToolGetCustomerOrders        = "get_customer_orders"
	ToolCreateOrder              = "create_order"
	ToolCheckPaymentStatus       = "check_payment_status"
	ToolUpdatePaymentStatus      = "update_payment_status"
	ToolExecutePayment           = "execute_payment"
	ToolExecuteRefund            = "execute_refund"
	ToolVerifyAdminPassword      = "verify_admin_password"
	ToolViewAllOrders            = "view_all_orders"
	ToolUpdateProductPrice       = "update_product_price"
	ToolAddNewProduct            = "add_new_product"
	ToolRemoveProduct            = "remove_product"
	ToolViewCustomerHistory      = "view_customer_history"
	ToolGetDailySalesReport      = "get_daily_sales_report"

	ToolTransferToBakery      = "transfer_to_bakery_agent"
	ToolTransferToCustomOrder = "transfer_to_custom_order_agent"
	ToolTransferToRefund      = "transfer_to_refund_agent"
	ToolTransferToAdmin       = "transfer_to_admin_agent"
)

const dateLayout = "2006-01-02"

// Options configures a Toolkit.
type Options struct {
	// Archive backs view_customer_history transcripts. Optional.
	Archive archive.Store

	// FAQs served by get_faq. Defaults to DefaultFAQs.
	FAQs []FAQ

	// Gateway simulates payments. Defaults to a clock-seeded gateway.
	Gateway *Gateway

	// Auth guards admin tools. Defaults to an authenticator that rejects everything.
	Auth *AdminAuth

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// Toolkit builds the bakery tools over a Store.
type Toolkit struct {
	store   *Store
	archive archive.Store
	faqs    []FAQ
	gateway *Gateway
	auth    *AdminAuth
	clock   func() time.Time
}

// NewToolkit creates a toolkit.
func NewToolkit(store *Store, optFns ...func(o *Options)) *Toolkit {
	opts := Options{
		FAQs:  DefaultFAQs,
		Clock: time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Gateway == nil {
		opts.Gateway = NewGateway(nil, opts.Clock)
	}
	if opts.Auth == nil {
		opts.Auth = NewAdminAuth("", 0, opts.Clock)
	}

	return &Toolkit{
		store:   store,
		archive: opts.Archive,
		faqs:    opts.FAQs,
		gateway: opts.Gateway,
		auth:    opts.Auth,
		clock:   opts.Clock,
	}
}

// Auth returns the admin authenticator.
func (k *Toolkit) Auth() *AdminAuth { return k.auth }

// Register adds every bakery tool to registry.
func (k *Toolkit) Register(registry *tool.Registry) error {
	for _, t := range k.Tools() {
		if err := registry.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// Tools returns all bakery tools including the handoff tools.
func (k *Toolkit) Tools() []tool.Tool {
	return []tool.Tool{
		tool.NewFunctionTool(ToolGetCakeInventory,
			"Get the current inventory of available cakes with prices and availability.", nil, k.getCakeInventory),
		tool.NewTypedTool(ToolCalculateCustomCakePrice,
			"Calculate the price of a custom cake. Base custom cakes start at $30.", k.calculateCustomCakePrice),
		tool.NewFunctionTool(ToolGetFAQ,
			"Get the frequently asked questions and their authoritative answers.", nil, k.getFAQ),
		tool.NewTypedTool(ToolGetCustomerByPhone,
			"Get customer details by phone number. Creates a customer record on first contact.", k.getCustomerByPhone),
		tool.NewTypedTool(ToolUpdateCustomerName,
			"Update a customer's name.", k.updateCustomerName),
		tool.NewTypedTool(ToolGetCustomerOrders,
			"Get the most recent orders of a customer, newest first.", k.getCustomerOrders),
		tool.NewTypedTool(ToolCreateOrder,
			"Create a new order. order_type is 'immediate' for pickup or 'custom' for custom cakes.", k.createOrder),
		tool.NewTypedTool(ToolCheckPaymentStatus,
			"Check the payment status of an order.", k.checkPaymentStatus),
		tool.NewTypedTool(ToolUpdatePaymentStatus,
			"Update the payment status of an order.", k.updatePaymentStatus),
		tool.NewTypedTool(ToolExecutePayment,
			"Execute a payment transaction for an order.", k.executePayment),
		tool.NewTypedTool(ToolExecuteRefund,
			"Execute a refund transaction for an order.", k.executeRefund),
		tool.NewTypedTool(ToolVerifyAdminPassword,
			"Verify the admin password. Required before any other admin tool.", k.verifyAdminPassword),
		tool.NewTypedTool(ToolViewAllOrders,
			"View all orders, optionally filtered by creation date (YYYY-MM-DD, inclusive).", admin(k, k.viewAllOrders)),
		tool.NewTypedTool(ToolUpdateProductPrice,
			"Update the price of a product.", admin(k, k.updateProductPrice)),
		tool.NewTypedTool(ToolAddNewProduct,
			"Add a new product to the inventory.", admin(k, k.addNewProduct)),
		tool.NewTypedTool(ToolRemoveProduct,
			"Remove a product from the inventory.", admin(k, k.removeProduct)),
		tool.NewTypedTool(ToolViewCustomerHistory,
			"View a customer's order history and recent conversation transcript.", admin(k, k.viewCustomerHistory)),
		tool.NewTypedTool(ToolGetDailySalesReport,
			"Generate the sales report for a day (YYYY-MM-DD).", admin(k, k.getDailySalesReport)),

		tool.NewHandoffTool(ToolTransferToBakery,
			"Transfer the conversation to the general bakery agent. Takes no arguments.", AgentBakery),
		tool.NewHandoffTool(ToolTransferToCustomOrder,
			"Transfer the conversation to the custom order specialist agent. Takes no arguments.", AgentOrder),
		tool.NewHandoffTool(ToolTransferToRefund,
			"Transfer the conversation to the refund specialist agent. Takes no arguments.", AgentRefund),
		tool.NewHandoffTool(ToolTransferToAdmin,
			"Transfer the conversation to the admin agent. Takes no arguments.", AgentAdmin),
	}
}

// admin guards fn behind admin verification of the calling identity.
func admin[Args any](k *Toolkit, fn func(tc *core.ToolContext, args Args) (any, error)) func(*core.ToolContext, Args) (any, error) {
	return func(tc *core.ToolContext, args Args) (any, error) {
		if !k.auth.Verified(tc.Identity()) {
			tc.Logger().Warn("bakery.admin.denied", "identity", tc.Identity())
			return map[string]any{
				"authenticated": false,
				"error":         "admin authentication required; call verify_admin_password first",
			}, nil
		}
		return fn(tc, args)
	}
}

func notFound(what string, id int64) map[string]any {
	return map[string]any{"found": false, "error": fmt.Sprintf("%s %d not found", what, id)}
}

func (k *Toolkit) getCakeInventory(tc *core.ToolContext, _ map[string]any) (any, error) {
	products, err := k.store.Products(tc.Context())
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(products))
	for _, p := range products {
		out = append(out, map[string]any{
			"id":           p.ID,
			"name":         p.Name,
			"description":  p.Description,
			"price":        fmt.Sprintf("$%.2f", p.Price),
			"availability": p.Availability(),
		})
	}

	return out, nil
}

func (k *Toolkit) calculateCustomCakePrice(_ *core.ToolContext, spec CakeSpec) (Quote, error) {
	return PriceCustomCake(spec), nil
}

func (k *Toolkit) getFAQ(*core.ToolContext, map[string]any) (any, error) {
	return k.faqs, nil
}

type phoneArgs struct {
	PhoneNumber string `json:"phone_number" jsonschema:"description=Customer phone number exactly as given in the system prompt" validate:"required"`
}

func (k *Toolkit) getCustomerByPhone(tc *core.ToolContext, args phoneArgs) (*Customer, error) {
	return k.store.EnsureCustomer(tc.Context(), strings.TrimSpace(args.PhoneNumber))
}

type customerNameArgs struct {
	CustomerID int64  `json:"customer_id" validate:"required,min=1"`
	Name       string `json:"name" validate:"required"`
}

func (k *Toolkit) updateCustomerName(tc *core.ToolContext, args customerNameArgs) (any, error) {
	name := strings.TrimSpace(args.Name)

	err := k.store.UpdateCustomerName(tc.Context(), args.CustomerID, name)
	if errors.Is(err, ErrNotFound) {
		return notFound("customer", args.CustomerID), nil
	}
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "name": name}, nil
}

type customerOrdersArgs struct {
	CustomerID int64 `json:"customer_id" validate:"required,min=1"`
	Limit      int   `json:"limit,omitempty" jsonschema:"description=Maximum number of orders (default 5)" validate:"min=0,max=50"`
}

func (k *Toolkit) getCustomerOrders(tc *core.ToolContext, args customerOrdersArgs) ([]Order, error) {
	limit := args.Limit
	if limit == 0 {
		limit = 5
	}
	return k.store.CustomerOrders(tc.Context(), args.CustomerID, limit)
}

type createOrderArgs struct {
	CustomerID  int64   `json:"customer_id" validate:"required,min=1"`
	OrderType   string  `json:"order_type" jsonschema:"enum=immediate,enum=custom" validate:"oneof=immediate custom"`
	TotalAmount float64 `json:"total_amount" validate:"gt=0"`
	PickupTime  string  `json:"pickup_time,omitempty" jsonschema:"description=ISO 8601 pickup time; defaults to now"`
}

func (k *Toolkit) createOrder(tc *core.ToolContext, args createOrderArgs) (any, error) {
	if _, err := k.store.Customer(tc.Context(), args.CustomerID); errors.Is(err, ErrNotFound) {
		return notFound("customer", args.CustomerID), nil
	} else if err != nil {
		return nil, err
	}

	pickup := parsePickupTime(args.PickupTime)

	if args.OrderType == OrderCustom && !pickup.IsZero() {
		if earliest := k.clock().Add(MinNoticeHours * time.Hour); pickup.Before(earliest) {
			return map[string]any{
				"order_id": nil,
				"status":   "failed",
				"message":  fmt.Sprintf("custom orders need %d hours notice; earliest pickup is %s", MinNoticeHours, earliest.UTC().Format(time.RFC3339)),
			}, nil
		}
	}

	order, err := k.store.CreateOrder(tc.Context(), args.CustomerID, args.OrderType, round2(args.TotalAmount), pickup)
	if err != nil {
		return nil, err
	}

	tc.Logger().Info("bakery.order.created", "order_id", order.ID, "type", order.Type, "total", order.TotalAmount)

	return map[string]any{
		"order_id":    order.ID,
		"status":      order.Status,
		"pickup_time": order.PickupTime,
		"message":     "Order created successfully",
	}, nil
}

// parsePickupTime accepts RFC 3339 (with or without zone) or a bare date and
// returns the zero time for anything else.
func parsePickupTime(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type orderArgs struct {
	OrderID int64 `json:"order_id" validate:"required,min=1"`
}

func (k *Toolkit) checkPaymentStatus(tc *core.ToolContext, args orderArgs) (any, error) {
	order, err := k.store.Order(tc.Context(), args.OrderID)
	if errors.Is(err, ErrNotFound) {
		return notFound("order", args.OrderID), nil
	}
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"order_id":     order.ID,
		"status":       order.PaymentStatus,
		"order_status": order.Status,
		"amount":       order.TotalAmount,
		"timestamp":    order.CreatedAt,
	}, nil
}

type paymentStatusArgs struct {
	OrderID int64  `json:"order_id" validate:"required,min=1"`
	Status  string `json:"status" jsonschema:"enum=pending,enum=paid,enum=failed,enum=refunded" validate:"oneof=pending paid failed refunded"`
}

func (k *Toolkit) updatePaymentStatus(tc *core.ToolContext, args paymentStatusArgs) (any, error) {
	err := k.store.UpdatePaymentStatus(tc.Context(), args.OrderID, args.Status)
	if errors.Is(err, ErrNotFound) {
		return map[string]any{"success": false, "error": "Order not found"}, nil
	}
	if err != nil {
		return nil, err
	}

	return map[string]any{"success": true, "status": args.Status}, nil
}

type paymentArgs struct {
	OrderID int64   `json:"order_id" validate:"required,min=1"`
	Amount  float64 `json:"amount" validate:"gt=0"`
}

func (k *Toolkit) executePayment(tc *core.ToolContext, args paymentArgs) (any, error) {
	if _, err := k.store.Order(tc.Context(), args.OrderID); errors.Is(err, ErrNotFound) {
		return notFound("order", args.OrderID), nil
	} else if err != nil {
		return nil, err
	}

	tx := k.gateway.Charge(args.OrderID, round2(args.Amount))
	tc.Logger().Info("bakery.payment", "order_id", args.OrderID, "success", tx.Success)

	return tx, nil
}

func (k *Toolkit) executeRefund(tc *core.ToolContext, args orderArgs) (any, error) {
	order, err := k.store.Order(tc.Context(), args.OrderID)
	if errors.Is(err, ErrNotFound) {
		return notFound("order", args.OrderID), nil
	}
	if err != nil {
		return nil, err
	}

	if order.PaymentStatus != PaymentPaid {
		return Transaction{
			OrderID:   order.ID,
			Timestamp: k.clock().UTC(),
			Message:   fmt.Sprintf("Refund not possible: payment status is %q", order.PaymentStatus),
		}, nil
	}

	tx := k.gateway.Refund(order.ID, order.TotalAmount)
	tc.Logger().Info("bakery.refund", "order_id", order.ID, "success", tx.Success)

	return tx, nil
}

type passwordArgs struct {
	Password string `json:"password" validate:"required"`
}

func (k *Toolkit) verifyAdminPassword(tc *core.ToolContext, args passwordArgs) (any, error) {
	ok := k.auth.Verify(tc.Identity(), args.Password)
	tc.Logger().Info("bakery.admin.verify", "identity", tc.Identity(), "valid", ok)

	return map[string]bool{"is_valid": ok}, nil
}

type dateRangeArgs struct {
	StartDate string `json:"start_date,omitempty" jsonschema:"description=First day (YYYY-MM-DD)"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"description=Last day (YYYY-MM-DD)"`
}

func (k *Toolkit) viewAllOrders(tc *core.ToolContext, args dateRangeArgs) (any, error) {
	from, err := parseOptionalDate(args.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", core.ErrInvalidArguments, err)
	}

	to, err := parseOptionalDate(args.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", core.ErrInvalidArguments, err)
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}

	return k.store.Orders(tc.Context(), from, to)
}

func parseOptionalDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

type productPriceArgs struct {
	ProductID int64   `json:"product_id" validate:"required,min=1"`
	NewPrice  float64 `json:"new_price" validate:"gt=0"`
}

func (k *Toolkit) updateProductPrice(tc *core.ToolContext, args productPriceArgs) (any, error) {
	err := k.store.UpdateProductPrice(tc.Context(), args.ProductID, round2(args.NewPrice))
	if errors.Is(err, ErrNotFound) {
		return map[string]any{"success": false}, nil
	}
	if err != nil {
		return nil, err
	}

	tc.Logger().Info("bakery.admin.price_updated", "product_id", args.ProductID, "price", args.NewPrice)

	return map[string]any{"success": true}, nil
}

type newProductArgs struct {
	Name        string  `json:"name" validate:"required"`
	Price       float64 `json:"price" validate:"gt=0"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity" validate:"min=0"`
}

func (k *Toolkit) addNewProduct(tc *core.ToolContext, args newProductArgs) (any, error) {
	p, err := k.store.AddProduct(tc.Context(), Product{
		Name:        strings.TrimSpace(args.Name),
		Description: args.Description,
		Price:       round2(args.Price),
		Quantity:    args.Quantity,
	})
	if err != nil {
		return nil, err
	}

	tc.Logger().Info("bakery.admin.product_added", "product_id", p.ID, "name", p.Name)

	return p, nil
}

type productArgs struct {
	ProductID int64 `json:"product_id" validate:"required,min=1"`
}

func (k *Toolkit) removeProduct(tc *core.ToolContext, args productArgs) (any, error) {
	err := k.store.RemoveProduct(tc.Context(), args.ProductID)
	if errors.Is(err, ErrNotFound) {
		return map[string]any{"success": false}, nil
	}
	if err != nil {
		return nil, err
	}

	tc.Logger().Info("bakery.admin.product_removed", "product_id", args.ProductID)

	return map[string]any{"success": true}, nil
}

type customerHistoryArgs struct {
	CustomerID int64 `json:"customer_id" validate:"required,min=1"`
	Limit      int   `json:"limit,omitempty" jsonschema:"description=Maximum transcript entries (default 20)" validate:"min=0,max=200"`
}

func (k *Toolkit) viewCustomerHistory(tc *core.ToolContext, args customerHistoryArgs) (any, error) {
	ctx := tc.Context()

	customer, err := k.store.Customer(ctx, args.CustomerID)
	if errors.Is(err, ErrNotFound) {
		return notFound("customer", args.CustomerID), nil
	}
	if err != nil {
		return nil, err
	}

	orders, err := k.store.CustomerOrders(ctx, customer.ID, 0)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"customer": customer,
		"orders":   orders,
	}

	if k.archive != nil {
		limit := args.Limit
		if limit == 0 {
			limit = 20
		}

		transcript, err := k.archive.History(ctx, customer.PhoneNumber, limit)
		if err != nil {
			return nil, err
		}
		out["transcript"] = transcript
	}

	return out, nil
}

type salesReportArgs struct {
	Date string `json:"date" jsonschema:"description=Report day (YYYY-MM-DD)" validate:"required,datetime=2006-01-02"`
}

// SalesReport summarizes one day of orders.
type SalesReport struct {
	Date           string  `json:"date"`
	TotalSales     float64 `json:"total_sales"`
	NumberOfOrders int     `json:"number_of_orders"`
	Orders         []Order `json:"orders"`
}

func (k *Toolkit) getDailySalesReport(tc *core.ToolContext, args salesReportArgs) (any, error) {
	day, err := time.Parse(dateLayout, args.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: date: %v", core.ErrInvalidArguments, err)
	}

	orders, err := k.store.Orders(tc.Context(), day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	report := SalesReport{Date: day.Format(dateLayout), NumberOfOrders: len(orders), Orders: orders}

	for _, o := range orders {
		if o.PaymentStatus == PaymentRefunded || o.Status == StatusCancelled {
			continue
		}
		report.TotalSales += o.TotalAmount
	}
	report.TotalSales = round2(report.TotalSales)

	return report, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
