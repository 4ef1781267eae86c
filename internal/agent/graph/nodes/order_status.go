package nodes

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/parsers"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/graph/tools"
	"github.com/Chative-core-poc-v1/intent-router/internal/agent/model"
	errx "github.com/Chative-core-poc-v1/intent-router/internal/core/error"
)

// AskOrderIDText is returned when no order id could be found.
const AskOrderIDText = "Please share your order ID (the number from your order confirmation) so I can look up its status."

const invalidOrderIDText = "That order ID doesn't look right. Please check the number from your order confirmation and try again."

// OrderStatusHandler looks up one order. It only reads, so repeating the
// request returns the same text while the order is unchanged.
type OrderStatusHandler struct {
	tools tools.Caller
}

func (h *OrderStatusHandler) Handle(ctx context.Context, s *model.ConversationState) error {
	raw, ok := parsers.ExtractOrderID(s.LatestUserText())
	if !ok {
		s.Degrade(model.ExtractionIncomplete)
		s.Fields["missing"] = []string{parsers.FieldOrderID}
		s.Output = &model.HandlerOutput{Text: AskOrderIDText}
		return nil
	}
	s.Fields[parsers.FieldOrderID] = raw

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.Degrade(model.ExtractionIncomplete)
		s.Output = &model.HandlerOutput{Text: invalidOrderIDText}
		return nil
	}

	capability := tools.CapabilityOf(model.EndpointOrders)
	res, err := h.tools.Call(ctx, model.ToolCall{
		Endpoint:  model.EndpointOrders,
		Name:      tools.ToolGetOrderStatus,
		Arguments: map[string]any{"order_id": id},
	})
	if err == nil {
		var order OrderRecord
		if err = decodeObjectField(capability, res, "order", &order); err == nil {
			s.Output = &model.HandlerOutput{Text: FormatOrderStatus(order), Data: order}
			return nil
		}
	}

	if errx.KindOf(err) == errx.KindCapability {
		s.Fail(model.ToolUnavailable, capability, err.Error())
		s.Output = &model.HandlerOutput{Text: fmt.Sprintf("Sorry, I couldn't find that order: %s.", errx.MessageOf(err))}
		return nil
	}
	s.Output = &model.HandlerOutput{Text: apologize(ctx, s, capability, err)}
	return nil
}

// FormatOrderStatus renders an order summary.
func FormatOrderStatus(o OrderRecord) string {
	fulfillment := "Not yet shipped"
	if o.FulfillmentStatus != nil && strings.TrimSpace(*o.FulfillmentStatus) != "" {
		fulfillment = *o.FulfillmentStatus
	}

	var b strings.Builder
	b.WriteString("Here are the details of your order:\n")
	if o.OrderNumber != "" {
		fmt.Fprintf(&b, "\nOrder number: %s", o.OrderNumber)
	}
	fmt.Fprintf(&b, "\nOrder ID: %d", o.ID)
	if o.Product != "" {
		fmt.Fprintf(&b, "\nProduct: %s", o.Product)
	}
	if o.Quantity > 0 {
		fmt.Fprintf(&b, "\nQuantity: %d", o.Quantity)
	}
	if o.TotalPaid != "" {
		fmt.Fprintf(&b, "\nTotal: %s", o.TotalPaid)
	}
	if o.Status != "" {
		fmt.Fprintf(&b, "\nPayment status: %s", o.Status)
	}
	fmt.Fprintf(&b, "\nFulfillment: %s", fulfillment)
	if o.CreatedAt != "" {
		fmt.Fprintf(&b, "\nOrdered on: %s", o.CreatedAt)
	}
	return b.String()
}
