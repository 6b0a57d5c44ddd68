package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/souqly/souqly-backend/internal/catalog"
	"github.com/souqly/souqly-backend/internal/discounts"
	"github.com/souqly/souqly-backend/pkg/enums"
	pkgerrors "github.com/souqly/souqly-backend/pkg/errors"
	"github.com/souqly/souqly-backend/pkg/logger"
	"github.com/souqly/souqly-backend/pkg/metrics"
	"github.com/souqly/souqly-backend/pkg/types"
	"golang.org/x/sync/errgroup"
)

type productGateway interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*catalog.ProductInfo, error)
}

type discountValidator interface {
	Validate(ctx context.Context, code string, subtotal types.Money, storeIDs []uuid.UUID) (discounts.Validation, error)
}

type zoneResolver interface {
	DetermineStoreZone(ctx context.Context, storeID uuid.UUID, dest types.Address) (enums.ShippingZone, error)
	DeliveryFee(ctx context.Context, storeID uuid.UUID, zone enums.ShippingZone) (types.Money, error)
}

// ResolvedLine is a requested line joined with its catalog view.
type ResolvedLine struct {
	Product   catalog.ProductInfo
	Quantity  int
	LineTotal types.Money
}

// AppliedDiscount is one audit entry in the stacking order.
type AppliedDiscount struct {
	Code   string             `json:"code"`
	Type   enums.DiscountType `json:"type"`
	Amount types.Money        `json:"amount"`
}

// QuoteResult is the structured outcome of one pricing calculation.
type QuoteResult struct {
	Subtotal         types.Money               `json:"subtotal"`
	ShippingTotal    types.Money               `json:"shipping_total"`
	ShippingByStore  map[uuid.UUID]types.Money `json:"shipping_by_store"`
	DiscountTotal    types.Money               `json:"discount_total"`
	AppliedDiscounts []AppliedDiscount         `json:"applied_discounts"`
	Total            types.Money               `json:"total"`
}

// Service prices a cart of line items against a destination and an ordered
// list of discount codes.
type Service interface {
	Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error)
	CalculateSubtotal(ctx context.Context, items []LineItem) (types.Money, error)
	GroupItemsByStore(lines []ResolvedLine) map[uuid.UUID][]ResolvedLine
	CalculateShippingCost(ctx context.Context, itemsByStore map[uuid.UUID][]ResolvedLine, dest types.Address) (types.Money, map[uuid.UUID]types.Money, error)
	ApplyDiscounts(ctx context.Context, codes []string, subtotal types.Money, storeIDs []uuid.UUID) (types.Money, []AppliedDiscount, error)
}

type service struct {
	catalog   productGateway
	discounts discountValidator
	zones     zoneResolver
	logg      *logger.Logger
	quotes    *metrics.QuoteMetrics
}

// NewService builds the order price calculator.
func NewService(gateway productGateway, validator discountValidator, resolver zoneResolver, logg *logger.Logger, quotes *metrics.QuoteMetrics) (Service, error) {
	if gateway == nil {
		return nil, fmt.Errorf("product gateway required")
	}
	if validator == nil {
		return nil, fmt.Errorf("discount validator required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("zone resolver required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog:   gateway,
		discounts: validator,
		zones:     resolver,
		logg:      logg,
		quotes:    quotes,
	}, nil
}

// Quote runs the full pricing pass: subtotal, per-store grouping, shipping,
// then discount stacking. It either returns a complete, consistent result or
// an error; a cancelled context aborts the whole calculation.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*QuoteResult, error) {
	started := time.Now()
	result, err := s.quote(ctx, input)
	if err != nil {
		code := string(pkgerrors.CodeInternal)
		if typed := pkgerrors.As(err); typed != nil {
			code = string(typed.Code())
		}
		s.quotes.IncAborted(code)
		s.quotes.ObserveDuration("aborted", time.Since(started))
		logCtx := s.logg.WithFields(ctx, pkgerrors.Dump(err).LogFields())
		s.logg.Error(logCtx, "pricing calculation aborted", err)
		return nil, err
	}
	s.quotes.ObserveDuration("ok", time.Since(started))
	return result, nil
}

func (s *service) quote(ctx context.Context, input QuoteInput) (*QuoteResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	lines, err := s.resolveLines(ctx, input.Items)
	if err != nil {
		return nil, err
	}

	subtotal := types.ZeroMoney
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}

	itemsByStore := s.GroupItemsByStore(lines)

	shippingTotal, shippingByStore, err := s.CalculateShippingCost(ctx, itemsByStore, input.Address)
	if err != nil {
		return nil, err
	}

	storeIDs := make([]uuid.UUID, 0, len(itemsByStore))
	for storeID := range itemsByStore {
		storeIDs = append(storeIDs, storeID)
	}

	discountTotal, applied, err := s.ApplyDiscounts(ctx, input.DiscountCodes, subtotal, storeIDs)
	if err != nil {
		return nil, err
	}

	return &QuoteResult{
		Subtotal:         subtotal,
		ShippingTotal:    shippingTotal,
		ShippingByStore:  shippingByStore,
		DiscountTotal:    discountTotal,
		AppliedDiscounts: applied,
		Total:            subtotal.SubClamped(discountTotal).Add(shippingTotal),
	}, nil
}

// CalculateSubtotal resolves every line and sums price × quantity. Any
// unresolvable product aborts the calculation.
func (s *service) CalculateSubtotal(ctx context.Context, items []LineItem) (types.Money, error) {
	lines, err := s.resolveLines(ctx, items)
	if err != nil {
		return types.ZeroMoney, err
	}
	subtotal := types.ZeroMoney
	for _, line := range lines {
		subtotal = subtotal.Add(line.LineTotal)
	}
	return subtotal, nil
}

func (s *service) resolveLines(ctx context.Context, items []LineItem) ([]ResolvedLine, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one item")
	}

	lines := make([]ResolvedLine, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "item quantity must be positive").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}
		if err := ctx.Err(); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calculation cancelled")
		}

		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.Active {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available").
				WithDetails(map[string]any{"product_id": item.ProductID.String()})
		}

		lines = append(lines, ResolvedLine{
			Product:   *product,
			Quantity:  item.Quantity,
			LineTotal: product.UnitPrice.MulQty(item.Quantity),
		})
	}
	return lines, nil
}

// GroupItemsByStore groups resolved lines by their owning store. It expects
// lines from a successful subtotal pass.
func (s *service) GroupItemsByStore(lines []ResolvedLine) map[uuid.UUID][]ResolvedLine {
	grouped := make(map[uuid.UUID][]ResolvedLine, len(lines))
	for _, line := range lines {
		grouped[line.Product.StoreID] = append(grouped[line.Product.StoreID], line)
	}
	return grouped
}

// CalculateShippingCost resolves a zone and fee per store. Per-store lookups
// are independent and run concurrently; any store that cannot ship to the
// destination fails the whole calculation.
func (s *service) CalculateShippingCost(ctx context.Context, itemsByStore map[uuid.UUID][]ResolvedLine, dest types.Address) (types.Money, map[uuid.UUID]types.Money, error) {
	if len(itemsByStore) == 0 {
		return types.ZeroMoney, nil, pkgerrors.New(pkgerrors.CodeValidation, "no stores to ship from")
	}

	var mu sync.Mutex
	fees := make(map[uuid.UUID]types.Money, len(itemsByStore))

	group, groupCtx := errgroup.WithContext(ctx)
	for storeID := range itemsByStore {
		group.Go(func() error {
			zone, err := s.zones.DetermineStoreZone(groupCtx, storeID, dest)
			if err != nil {
				return err
			}
			if !zone.IsSupported() {
				logCtx := s.logg.WithFields(groupCtx, map[string]any{
					"store_id": storeID.String(),
					"city":     dest.City,
					"country":  dest.Country,
				})
				s.logg.Warn(logCtx, "store cannot ship to destination")
				return pkgerrors.New(pkgerrors.CodeShippingUnavailable, "store cannot ship to destination").
					WithDetails(map[string]any{
						"store_id": storeID.String(),
						"city":     dest.City,
						"state":    dest.State,
						"country":  dest.Country,
					})
			}

			fee, err := s.zones.DeliveryFee(groupCtx, storeID, zone)
			if err != nil {
				return err
			}
			mu.Lock()
			fees[storeID] = fee
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return types.ZeroMoney, nil, err
	}

	total := types.ZeroMoney
	for _, fee := range fees {
		total = total.Add(fee)
	}
	return total, fees, nil
}

// ApplyDiscounts stacks codes strictly in the order supplied. Invalid codes
// are skipped silently; each valid code's effect is clamped to the subtotal
// remaining after previously applied codes, so the total discount can never
// exceed the subtotal.
func (s *service) ApplyDiscounts(ctx context.Context, codes []string, subtotal types.Money, storeIDs []uuid.UUID) (types.Money, []AppliedDiscount, error) {
	totalDiscount := types.ZeroMoney
	applied := make([]AppliedDiscount, 0, len(codes))

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return types.ZeroMoney, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "calculation cancelled")
		}

		verdict, err := s.discounts.Validate(ctx, code, subtotal, storeIDs)
		if err != nil {
			return types.ZeroMoney, nil, err
		}

		logCtx := s.logg.WithDiscountCode(ctx, code)
		if !verdict.Valid || verdict.Definition == nil {
			s.quotes.IncSkippedDiscount()
			s.logg.Info(s.logg.WithField(logCtx, "reason", verdict.Reason), "discount code skipped")
			continue
		}

		remaining := subtotal.SubClamped(totalDiscount)
		amount := verdict.Definition.RawAmount(subtotal).Min(remaining)
		if amount.IsZero() {
			s.quotes.IncSkippedDiscount()
			s.logg.Info(s.logg.WithField(logCtx, "reason", "no remaining subtotal"), "discount code skipped")
			continue
		}

		totalDiscount = totalDiscount.Add(amount)
		applied = append(applied, AppliedDiscount{
			Code:   verdict.Definition.Code,
			Type:   verdict.Definition.Type,
			Amount: amount,
		})
	}

	return totalDiscount, applied, nil
}
