package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/b2bbillings/b2bbillings-sub002/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CanonicalTransaction is the single shape the classifier and reconciliation
// engine operate on. Raw records arrive from several backends with drifting
// field names; Normalize maps them all onto this struct.
type CanonicalTransaction struct {
	ID            string           `json:"id"`
	Kind          TransactionKind  `json:"kind"`
	PartyId       string           `json:"partyId"`
	PartyName     string           `json:"partyName"`
	Amount        decimal.Decimal  `json:"amount"`
	PaidAmount    decimal.Decimal  `json:"paidAmount"`
	Date          time.Time        `json:"date"`
	DateValid     bool             `json:"dateValid"`
	DueDate       *time.Time       `json:"dueDate,omitempty"`
	Reference     string           `json:"reference"`
	PaymentType   PaymentType      `json:"paymentType,omitempty"`
	PaymentMethod PaymentMethod    `json:"paymentMethod,omitempty"`
	BankAccountId string           `json:"bankAccountId,omitempty"`
	History       []HistoryEntry   `json:"history,omitempty"`
	// Invalid marks a record whose amount could not be coerced. The record is
	// kept (amount 0) so one bad row never aborts a batch.
	Invalid bool `json:"invalid,omitempty"`
}

// HistoryEntry is one embedded payment-history row on a sale/purchase.
type HistoryEntry struct {
	Amount decimal.Decimal `json:"amount"`
	Date   time.Time       `json:"date"`
}

// PendingAmount is always derived, never trusted from the source:
// max(0, amount - paidAmount).
func (t CanonicalTransaction) PendingAmount() decimal.Decimal {
	p := t.Amount.Sub(t.PaidAmount)
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// resolutionTable lists candidate dot-paths per canonical field, in fixed
// precedence order (most specific nested path first, then flat aliases).
// First hit wins. Keeping the precedence in data makes it auditable and
// testable in isolation.
type resolutionTable struct {
	id         []string
	amount     []string
	paidAmount []string
	date       []string
	dueDate    []string
	partyId    []string
	partyName  []string
	reference  []string
	history    []string
	refPrefix  string
}

var saleTable = resolutionTable{
	id:         []string{"_id", "id"},
	amount:     []string{"totals.finalTotal", "finalTotal", "total", "amount"},
	paidAmount: []string{"payment.paidAmount", "paidAmount", "paid"},
	date:       []string{"invoiceDate", "saleDate", "date", "createdAt"},
	dueDate:    []string{"payment.dueDate", "dueDate"},
	partyId:    []string{"customerId", "customer._id", "customer.id", "customer", "partyId", "party"},
	partyName:  []string{"customerName", "customer.name", "partyName"},
	reference:  []string{"invoiceNumber", "invoiceNo", "reference"},
	history:    []string{"paymentHistory", "payments"},
	refPrefix:  "SAL",
}

var purchaseTable = resolutionTable{
	id:         []string{"_id", "id"},
	amount:     []string{"totals.finalTotal", "finalTotal", "total", "amount"},
	paidAmount: []string{"payment.paidAmount", "paidAmount", "paid"},
	date:       []string{"billDate", "purchaseDate", "date", "createdAt"},
	dueDate:    []string{"payment.dueDate", "dueDate"},
	partyId:    []string{"supplierId", "supplier._id", "supplier.id", "supplier", "partyId", "party"},
	partyName:  []string{"supplierName", "supplier.name", "partyName"},
	reference:  []string{"billNumber", "billNo", "reference"},
	history:    []string{"paymentHistory", "payments"},
	refPrefix:  "PUR",
}

var paymentTable = resolutionTable{
	id:         []string{"_id", "id"},
	amount:     []string{"amount", "paymentAmount", "total"},
	paidAmount: nil,
	date:       []string{"paymentDate", "date", "createdAt"},
	dueDate:    nil,
	partyId:    []string{"partyId", "party._id", "party.id", "party", "customerId", "supplierId", "customer", "supplier"},
	partyName:  []string{"partyName", "party.name", "customerName", "supplierName"},
	reference:  []string{"paymentNumber", "reference"},
	refPrefix:  "PAY",
}

func tableFor(kind TransactionKind) resolutionTable {
	switch kind {
	case TransactionKindPurchase:
		return purchaseTable
	case TransactionKindPayment:
		return paymentTable
	default:
		return saleTable
	}
}

// Normalize maps one raw record onto the canonical shape. Pure function, no
// side effects. Malformed amounts flag the record instead of failing it.
func Normalize(raw map[string]any, kind TransactionKind) CanonicalTransaction {
	table := tableFor(kind)

	out := CanonicalTransaction{Kind: kind}

	out.ID = resolveString(raw, table.id)
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	var ok bool
	out.Amount, ok = resolveAmount(raw, table.amount)
	if !ok {
		out.Invalid = true
	}
	if paid, paidOK := resolveAmount(raw, table.paidAmount); paidOK {
		out.PaidAmount = paid
	}

	if d, dok := resolveDate(raw, table.date); dok {
		out.Date = d
		out.DateValid = true
	}
	if d, dok := resolveDate(raw, table.dueDate); dok {
		due := d
		out.DueDate = &due
	}

	out.PartyId = resolveString(raw, table.partyId)
	out.PartyName = resolveString(raw, table.partyName)

	out.Reference = resolveString(raw, table.reference)
	if out.Reference == "" {
		out.Reference = synthesizeReference(table.refPrefix, out.ID)
	}

	if kind == TransactionKindPayment {
		if pt := PaymentType(resolveString(raw, []string{"type", "paymentType"})); pt.Valid() {
			out.PaymentType = pt
		}
		if pm := PaymentMethod(resolveString(raw, []string{"paymentMethod", "method"})); pm.Valid() {
			out.PaymentMethod = pm
		}
		out.BankAccountId = resolveString(raw, []string{"bankAccountId", "bankAccount._id", "bankAccount.id", "bankAccount"})
	} else {
		out.History = resolveHistory(raw, table.history)
	}

	return out
}

// NormalizeBatch never aborts: bad rows come back flagged, good rows clean.
func NormalizeBatch(raws []map[string]any, kind TransactionKind) []CanonicalTransaction {
	out := make([]CanonicalTransaction, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw, kind))
	}
	return out
}

// synthesizeReference builds "{PREFIX}-{id8}" for records without one.
func synthesizeReference(prefix, id string) string {
	id8 := id
	if len(id8) > 8 {
		id8 = id8[:8]
	}
	return prefix + "-" + strings.ToUpper(id8)
}

/* path walking and coercion */

// lookup walks a dot path through nested maps.
func lookup(raw map[string]any, path string) (any, bool) {
	cur := any(raw)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok || cur == nil {
			return nil, false
		}
	}
	return cur, true
}

func resolveString(raw map[string]any, paths []string) string {
	for _, p := range paths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		if s := coerceString(v); s != "" {
			return s
		}
	}
	return ""
}

func coerceString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case map[string]any:
		// An aliased object ({_id, name}) stands in for its id.
		for _, k := range []string{"_id", "id"} {
			if inner, ok := x[k]; ok {
				return coerceString(inner)
			}
		}
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		return x.String()
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return ""
	default:
		return ""
	}
}

// resolveAmount coerces the first matching candidate to a non-negative
// decimal. Returns ok=false when every candidate is absent or malformed.
func resolveAmount(raw map[string]any, paths []string) (decimal.Decimal, bool) {
	for _, p := range paths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		if d, dok := coerceAmount(v); dok {
			return d, true
		}
		// Present but malformed: stop here, the record gets flagged.
		return decimal.Zero, false
	}
	return decimal.Zero, false
}

func coerceAmount(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return clampNonNegative(decimal.NewFromFloat(x)), true
	case int:
		return clampNonNegative(decimal.NewFromInt(int64(x))), true
	case int64:
		return clampNonNegative(decimal.NewFromInt(x)), true
	case json.Number:
		d, err := decimal.NewFromString(x.String())
		if err != nil {
			return decimal.Zero, false
		}
		return clampNonNegative(d), true
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return clampNonNegative(d), true
	case decimal.Decimal:
		return clampNonNegative(x), true
	default:
		return decimal.Zero, false
	}
}

func clampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func resolveDate(raw map[string]any, paths []string) (time.Time, bool) {
	for _, p := range paths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		switch x := v.(type) {
		case time.Time:
			return x, true
		case string:
			if t, tok := utils.ParseDate(x); tok {
				return t, true
			}
			return time.Time{}, false
		case float64:
			// Epoch millis from the mobile client.
			return time.UnixMilli(int64(x)).UTC(), true
		}
		return time.Time{}, false
	}
	return time.Time{}, false
}

func resolveHistory(raw map[string]any, paths []string) []HistoryEntry {
	for _, p := range paths {
		v, ok := lookup(raw, p)
		if !ok {
			continue
		}
		rows, rok := v.([]any)
		if !rok {
			continue
		}
		entries := make([]HistoryEntry, 0, len(rows))
		for _, row := range rows {
			m, mok := row.(map[string]any)
			if !mok {
				continue
			}
			amount, aok := resolveAmount(m, []string{"amount", "paidAmount"})
			if !aok {
				continue
			}
			entry := HistoryEntry{Amount: amount}
			if d, dok := resolveDate(m, []string{"date", "paymentDate", "createdAt"}); dok {
				entry.Date = d
			}
			entries = append(entries, entry)
		}
		return entries
	}
	return nil
}
