package ingest

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/profitboard/backend/internal/domain/costsync"
)

// Artifact column candidates, in lookup order. Exports carry either the
// descriptive label (template download) or the machine field name (API
// download) depending on which platform path produced the file; both
// schemes appear in the wild, so every field tries the label first and
// falls back to the field name.
var (
	orderSNColumns          = []string{"订单编号", "platformOrderSn"}
	purchaseTotalColumns    = []string{"商品成本(整单-CNY)", "accountCurrencyTotalPurchasePrice"}
	packagingCostColumns    = []string{"包材费(CNY)", "packagingCost"}
	forwarderFreightColumns = []string{"三方仓操作费(CNY)", "accountCurrencyForwarderFreight"}
	otherCostColumns        = []string{"其他成本(CNY)", "accountCurrencyOtherCost"}
)

// ToCostRow maps a parsed record onto the domain cost row. A record
// without an order serial reports ok=false and is not an error; cost
// columns absent under both naming schemes default to zero; a malformed
// amount is an error.
func ToCostRow(r *Row) (costsync.CostRow, bool, error) {
	serial := r.First(orderSNColumns...)
	if serial == "" {
		return costsync.CostRow{}, false, nil
	}

	row := costsync.CostRow{OrderSN: serial}

	var err error
	if row.PurchaseTotal, err = parseAmount(r, purchaseTotalColumns); err != nil {
		return costsync.CostRow{}, true, err
	}
	if row.PackagingCost, err = parseAmount(r, packagingCostColumns); err != nil {
		return costsync.CostRow{}, true, err
	}
	if row.ForwarderFreight, err = parseAmount(r, forwarderFreightColumns); err != nil {
		return costsync.CostRow{}, true, err
	}
	if row.OtherCost, err = parseAmount(r, otherCostColumns); err != nil {
		return costsync.CostRow{}, true, err
	}
	return row, true, nil
}

func parseAmount(r *Row, candidates []string) (decimal.Decimal, error) {
	raw := r.First(candidates...)
	if raw == "" {
		return decimal.Zero, nil
	}
	// Exports occasionally format amounts with thousands separators
	raw = strings.ReplaceAll(raw, ",", "")
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ingest: row %d: bad amount %q for %s: %w", r.LineNumber, raw, candidates[len(candidates)-1], err)
	}
	return d, nil
}
