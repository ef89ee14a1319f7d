package engine

import (
	"sort"
	"strconv"
	"strings"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/shopspring/decimal"
)

// Form field prefixes. The rest of a key is an index suffix that pairs a
// length with its quantity, e.g. stock_len2 and stock_qty2.
const (
	prefixStockLen  = "stock_len"
	prefixStockQty  = "stock_qty"
	prefixDemandLen = "demand_len"
	prefixDemandQty = "demand_qty"
)

// ParseForm converts a flat form mapping into raw stock and demand lists.
// Keys without a recognized prefix are ignored. Items are ordered by their
// index suffix (numerically when the suffixes are numbers).
func ParseForm(form map[string]string) (model.RawInput, error) {
	stockLen := map[string]string{}
	stockQty := map[string]string{}
	demandLen := map[string]string{}
	demandQty := map[string]string{}

	for key, value := range form {
		switch {
		case strings.HasPrefix(key, prefixStockLen):
			stockLen[strings.TrimPrefix(key, prefixStockLen)] = value
		case strings.HasPrefix(key, prefixStockQty):
			stockQty[strings.TrimPrefix(key, prefixStockQty)] = value
		case strings.HasPrefix(key, prefixDemandLen):
			demandLen[strings.TrimPrefix(key, prefixDemandLen)] = value
		case strings.HasPrefix(key, prefixDemandQty):
			demandQty[strings.TrimPrefix(key, prefixDemandQty)] = value
		}
	}

	stock, err := pairItems(stockLen, stockQty, prefixStockLen, prefixStockQty)
	if err != nil {
		return model.RawInput{}, err
	}
	demand, err := pairItems(demandLen, demandQty, prefixDemandLen, prefixDemandQty)
	if err != nil {
		return model.RawInput{}, err
	}
	return model.RawInput{Stock: stock, Demand: demand}, nil
}

func pairItems(lengths, quantities map[string]string, lenPrefix, qtyPrefix string) ([]model.RawItem, error) {
	for suffix := range quantities {
		if _, ok := lengths[suffix]; !ok {
			return nil, inputError(MsgUnpairedField, qtyPrefix+suffix, lenPrefix+suffix)
		}
	}

	suffixes := make([]string, 0, len(lengths))
	for suffix := range lengths {
		if _, ok := quantities[suffix]; !ok {
			return nil, inputError(MsgUnpairedField, lenPrefix+suffix, qtyPrefix+suffix)
		}
		suffixes = append(suffixes, suffix)
	}
	sortSuffixes(suffixes)

	items := make([]model.RawItem, 0, len(suffixes))
	for _, suffix := range suffixes {
		length, err := ParseLength(lengths[suffix])
		if err != nil {
			return nil, inputError(MsgInvalidNumber, lengths[suffix], lenPrefix+suffix)
		}
		qty, err := ParseQuantity(quantities[suffix])
		if err != nil {
			return nil, inputError(MsgInvalidNumber, quantities[suffix], qtyPrefix+suffix)
		}
		items = append(items, model.RawItem{Length: length, Quantity: qty})
	}
	return items, nil
}

// sortSuffixes orders numeric suffixes by value, before any other suffix.
func sortSuffixes(suffixes []string) {
	index := func(s string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimLeft(s, "_-"))
		return n, err == nil
	}
	sort.Slice(suffixes, func(i, j int) bool {
		a, aok := index(suffixes[i])
		b, bok := index(suffixes[j])
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		default:
			return suffixes[i] < suffixes[j]
		}
	})
}

// ParseLength parses a length, accepting a comma as the decimal separator.
func ParseLength(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return decimal.NewFromString(s)
}

// ParseQuantity parses a whole-number quantity.
func ParseQuantity(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

// Normalize validates raw input and aggregates it into a Request. Checks run
// in order: negative values, zero lengths, lengths with more than maxPlaces
// decimal places, empty stock, empty demand and demand lengths longer than
// every stock length. Duplicate lengths are
// merged by summing their quantities; zero quantities are dropped.
func Normalize(raw model.RawInput) (model.Request, error) {
	for _, list := range [][]model.RawItem{raw.Stock, raw.Demand} {
		for _, it := range list {
			if it.Length.IsNegative() || it.Quantity < 0 {
				return model.Request{}, inputError(MsgNegative)
			}
		}
	}
	for _, list := range [][]model.RawItem{raw.Stock, raw.Demand} {
		for _, it := range list {
			if it.Length.IsZero() && it.Quantity > 0 {
				return model.Request{}, inputError(MsgZeroLength)
			}
		}
	}
	for _, list := range [][]model.RawItem{raw.Stock, raw.Demand} {
		for _, it := range list {
			if it.Quantity > 0 && !representable(it.Length) {
				return model.Request{}, inputError(MsgTooPrecise, maxPlaces)
			}
		}
	}

	stock := aggregate(raw.Stock)
	demand := aggregate(raw.Demand)
	if len(stock) == 0 {
		return model.Request{}, inputError(MsgEmptyStock)
	}
	if len(demand) == 0 {
		return model.Request{}, inputError(MsgEmptyDemand)
	}

	req := model.Request{
		Stock:  make([]model.StockItem, len(stock)),
		Demand: make([]model.DemandItem, len(demand)),
	}
	for i, it := range stock {
		req.Stock[i] = model.StockItem{Length: it.Length, Quantity: it.Quantity}
	}
	for i, it := range demand {
		req.Demand[i] = model.DemandItem{Length: it.Length, Quantity: it.Quantity}
	}

	maxLen := req.MaxStockLength()
	for _, d := range req.Demand {
		if d.Length.GreaterThan(maxLen) {
			return model.Request{}, inputError(MsgUnreachable, d.Length.String())
		}
	}
	return req, nil
}

// aggregate merges equal lengths in order of first appearance and drops
// zero quantities.
func aggregate(items []model.RawItem) []model.RawItem {
	index := make(map[string]int)
	var out []model.RawItem
	for _, it := range items {
		if it.Quantity == 0 {
			continue
		}
		key := it.Length.String()
		if i, ok := index[key]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[key] = len(out)
		out = append(out, it)
	}
	return out
}
