package order

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Additional-Code/nursery/internal/entity"
	"github.com/Additional-Code/nursery/pkg/errorbank"
)

// CreateInput is an order as submitted by staff. Totals are optional; when present
// they must agree with the server-side computation.
type CreateInput struct {
	OrderNo         string
	CustomerName    string
	CustomerContact string
	CustomerAddress string
	Items           []ItemInput
	SubTotal        decimal.Decimal
	Discount        decimal.Decimal
	Tax             decimal.Decimal
	GrandTotal      decimal.Decimal
	PaidAmount      decimal.Decimal
	Status          string
}

// ItemInput is one requested line. A zero Rate falls back to the plant's price.
type ItemInput struct {
	PlantID  int64
	Rate     decimal.Decimal
	Quantity int
	Total    decimal.Decimal
}

// plan is a validated order request with lines sorted by plant id.
type plan struct {
	in     CreateInput
	status entity.OrderStatus
	lines  []ItemInput
	// plantIDs lists each distinct plant once, ascending; demand holds the summed
	// quantity per plant.
	plantIDs []int64
	demand   map[int64]int
}

func validate(in CreateInput) (*plan, error) {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.OrderNo = strings.TrimSpace(in.OrderNo)

	if in.CustomerName == "" {
		return nil, errorbank.BadRequest("customer name is required")
	}
	if len(in.Items) == 0 {
		return nil, errorbank.BadRequest("order must contain at least one item")
	}
	status, ok := entity.ParseOrderStatus(in.Status)
	if !ok {
		return nil, errorbank.BadRequest(fmt.Sprintf("unknown order status %q", in.Status),
			errorbank.WithDetail("allowed", []entity.OrderStatus{entity.OrderStatusPaid, entity.OrderStatusPending, entity.OrderStatusCancelled}))
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{{"discount", in.Discount}, {"tax", in.Tax}, {"paid amount", in.PaidAmount}} {
		if f.value.IsNegative() {
			return nil, errorbank.BadRequest(f.name + " must not be negative")
		}
	}

	p := &plan{in: in, status: status, demand: make(map[int64]int)}
	for i, it := range in.Items {
		if it.PlantID <= 0 {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: plant id is required", i+1), errorbank.WithDetail("item", i+1))
		}
		if it.Quantity <= 0 {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: quantity must be greater than zero", i+1), errorbank.WithDetail("item", i+1))
		}
		if it.Quantity > entity.MaxQuantity {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: quantity must not exceed %d", i+1, entity.MaxQuantity), errorbank.WithDetail("item", i+1))
		}
		if it.Rate.IsNegative() {
			return nil, errorbank.BadRequest(fmt.Sprintf("item %d: rate must not be negative", i+1), errorbank.WithDetail("item", i+1))
		}
		demand, seen := p.demand[it.PlantID]
		if !seen {
			p.plantIDs = append(p.plantIDs, it.PlantID)
		}
		if demand > entity.MaxQuantity-it.Quantity {
			return nil, errorbank.BadRequest(fmt.Sprintf("plant %d: total quantity must not exceed %d", it.PlantID, entity.MaxQuantity),
				errorbank.WithDetails(map[string]any{"item": i + 1, "plant_id": it.PlantID}))
		}
		p.demand[it.PlantID] = demand + it.Quantity
	}

	p.lines = append([]ItemInput(nil), in.Items...)
	sort.SliceStable(p.lines, func(i, j int) bool { return p.lines[i].PlantID < p.lines[j].PlantID })
	sortIDs(p.plantIDs)
	return p, nil
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// build assembles the order from the plan and the locked plant rows, recomputing
// every total.
func (p *plan) build(orderNo string, plants map[int64]*entity.Plant) (*entity.Order, error) {
	order := &entity.Order{
		OrderNo:         orderNo,
		CustomerName:    p.in.CustomerName,
		CustomerContact: strings.TrimSpace(p.in.CustomerContact),
		CustomerAddress: strings.TrimSpace(p.in.CustomerAddress),
		Discount:        p.in.Discount.Round(2),
		Tax:             p.in.Tax.Round(2),
		PaidAmount:      p.in.PaidAmount.Round(2),
		Status:          p.status,
		Items:           make([]*entity.OrderItem, 0, len(p.lines)),
	}

	subTotal := decimal.Zero
	for _, line := range p.lines {
		plant := plants[line.PlantID]
		rate := line.Rate
		if rate.IsZero() {
			rate = plant.Price
		}
		rate = rate.Round(2)
		total := rate.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		if !line.Total.IsZero() && !line.Total.Round(2).Equal(total) {
			return nil, errorbank.Unprocessable("item total does not match rate x quantity",
				errorbank.WithDetails(map[string]any{
					"plant_id": line.PlantID,
					"expected": total.StringFixed(2),
					"received": line.Total.StringFixed(2),
				}))
		}
		plantID := line.PlantID
		order.Items = append(order.Items, &entity.OrderItem{
			PlantID:   &plantID,
			PlantName: plant.Name,
			Rate:      rate,
			Quantity:  line.Quantity,
			Total:     total,
		})
		subTotal = subTotal.Add(total)
	}

	order.SubTotal = subTotal
	order.GrandTotal = subTotal.Sub(order.Discount).Add(order.Tax)

	if order.GrandTotal.IsNegative() {
		return nil, errorbank.Unprocessable("discount exceeds order value",
			errorbank.WithDetail("sub_total", subTotal.StringFixed(2)))
	}
	if err := reconcile("sub total", p.in.SubTotal, order.SubTotal); err != nil {
		return nil, err
	}
	if err := reconcile("grand total", p.in.GrandTotal, order.GrandTotal); err != nil {
		return nil, err
	}
	return order, nil
}

func reconcile(field string, given, computed decimal.Decimal) error {
	if given.IsZero() || given.Round(2).Equal(computed) {
		return nil
	}
	return errorbank.Unprocessable(field+" does not match order items",
		errorbank.WithDetails(map[string]any{
			"expected": computed.StringFixed(2),
			"received": given.StringFixed(2),
		}))
}
