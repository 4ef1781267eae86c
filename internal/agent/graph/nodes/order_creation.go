package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
	logx "github.com/Chative-core-poc-v1/intent-router/pkg/logger"
)

// fieldPrompts names each order field the way the customer is asked for it.
var fieldPrompts = map[string]string{
	parsers.FieldVariantID: "the product variant ID",
	parsers.FieldEmail:     "your email address",
	parsers.FieldQuantity:  "the quantity",
}

// OrderRecord is the order shape returned by the order service.
type OrderRecord struct {
	ID                int64   `json:"id"`
	OrderNumber       string  `json:"order_number"`
	Product           string  `json:"product"`
	VariantID         int64   `json:"variant_id"`
	Quantity          int     `json:"quantity"`
	TotalPaid         string  `json:"total_paid"`
	Status            string  `json:"status"`
	FulfillmentStatus *string `json:"fulfillment_status"`
	CreatedAt         string  `json:"created_at"`
}

// Diagnostics implements the finalize diagnostics hook.
func (o OrderRecord) Diagnostics() map[string]any {
	return map[string]any{"order_id": o.ID, "order_status": o.Status}
}

// OrderCreationHandler places an order once every required field is present,
// and asks for the missing ones otherwise.
type OrderCreationHandler struct {
	tools           tools.Caller
	defaultQuantity int
}

func (h *OrderCreationHandler) Handle(ctx context.Context, s *model.ConversationState) error {
	fields := parsers.ExtractOrderFields(s.LatestUserText())
	if fields.Quantity == 0 {
		fields.Quantity = h.defaultQuantity
	}
	recordOrderFields(s, fields)

	if missing := fields.Missing(h.defaultQuantity <= 0); len(missing) > 0 {
		s.Degrade(model.ExtractionIncomplete)
		s.Fields["missing"] = missing
		s.Output = &model.HandlerOutput{Text: ClarifyOrderText(missing)}
		return nil
	}

	capability := tools.CapabilityOf(model.EndpointOrders)
	res, err := h.tools.Call(ctx, model.ToolCall{
		Endpoint:  model.EndpointOrders,
		Name:      tools.ToolCreateOrder,
		Arguments: orderArguments(fields),
	})
	if err == nil {
		var order OrderRecord
		if err = decodeObjectField(capability, res, "order", &order); err == nil {
			s.Output = &model.HandlerOutput{Text: FormatOrderCreated(order), Data: order}
			return nil
		}
	}

	if errx.KindOf(err) == errx.KindCapability {
		s.Fail(model.ToolUnavailable, capability, err.Error())
		logx.Info().Str("run_id", s.RunID).Str("reason", errx.MessageOf(err)).Msg("Order rejected by order service")
		s.Output = &model.HandlerOutput{Text: fmt.Sprintf("Sorry, we couldn't place your order: %s.", errx.MessageOf(err))}
		return nil
	}
	s.Output = &model.HandlerOutput{Text: apologize(ctx, s, capability, err)}
	return nil
}

func recordOrderFields(s *model.ConversationState, f parsers.OrderFields) {
	if f.VariantID != 0 {
		s.Fields[parsers.FieldVariantID] = f.VariantID
	}
	if f.Email != "" {
		s.Fields[parsers.FieldEmail] = f.Email
	}
	if f.Quantity != 0 {
		s.Fields[parsers.FieldQuantity] = f.Quantity
	}
}

// orderArguments builds the create_order payload for a single line item.
func orderArguments(f parsers.OrderFields) map[string]any {
	return map[string]any{
		"order": map[string]any{
			"line_items": []any{
				map[string]any{"variant_id": f.VariantID, "quantity": f.Quantity},
			},
			"customer":         map[string]any{"email": f.Email},
			"financial_status": "paid",
			"test":             true,
		},
	}
}

// ClarifyOrderText asks for exactly the missing order fields.
func ClarifyOrderText(missing []string) string {
	names := make([]string, 0, len(missing))
	for _, f := range missing {
		if p, ok := fieldPrompts[f]; ok {
			names = append(names, p)
		}
	}
	return fmt.Sprintf("To place your order I still need %s. Please share %s and I'll create the order right away.",
		joinWithAnd(names), pronounFor(len(names)))
}

func pronounFor(n int) string {
	if n == 1 {
		return "it"
	}
	return "them"
}

// FormatOrderCreated renders an order confirmation.
func FormatOrderCreated(o OrderRecord) string {
	var b strings.Builder
	b.WriteString("Your order has been placed successfully!\n")
	fmt.Fprintf(&b, "\nOrder ID: %d", o.ID)
	if o.OrderNumber != "" {
		fmt.Fprintf(&b, "\nOrder number: %s", o.OrderNumber)
	}
	if o.Product != "" {
		fmt.Fprintf(&b, "\nProduct: %s", o.Product)
	}
	fmt.Fprintf(&b, "\nQuantity: %d", o.Quantity)
	if o.TotalPaid != "" {
		fmt.Fprintf(&b, "\nTotal paid: %s", o.TotalPaid)
	}
	fmt.Fprintf(&b, "\n\nUse the ID %d to track your order status at any time.", o.ID)
	return b.String()
}
