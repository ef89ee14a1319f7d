package engine

import (
	"testing"

	"github.com/piwi3910/BarCut/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormPairsBySuffix(t *testing.T) {
	raw, err := ParseForm(map[string]string{
		"stock_len10": "4",
		"stock_qty10": "1",
		"stock_len2":  "6,5",
		"stock_qty2":  " 3 ",
		"demand_len1": "1.5",
		"demand_qty1": "4",
		"comment":     "ignored",
	})
	require.NoError(t, err)
	require.Len(t, raw.Stock, 2)
	assert.True(t, raw.Stock[0].Length.Equal(dec("6.5")), "suffix 2 sorts before 10")
	assert.Equal(t, 3, raw.Stock[0].Quantity)
	assert.True(t, raw.Stock[1].Length.Equal(dec("4")))
	require.Len(t, raw.Demand, 1)
	assert.Equal(t, 4, raw.Demand[0].Quantity)
}

func TestParseFormUnsuffixedKeys(t *testing.T) {
	raw, err := ParseForm(map[string]string{
		"stock_len":  "6",
		"stock_qty":  "2",
		"demand_len": "2",
		"demand_qty": "3",
	})
	require.NoError(t, err)
	assert.Len(t, raw.Stock, 1)
	assert.Len(t, raw.Demand, 1)
}

func TestParseFormErrors(t *testing.T) {
	tests := []struct {
		name string
		form map[string]string
		want string
	}{
		{
			name: "missing quantity",
			form: map[string]string{"stock_len1": "6"},
			want: "Field stock_len1 has no matching stock_qty1 field",
		},
		{
			name: "missing length",
			form: map[string]string{"demand_qty3": "2"},
			want: "Field demand_qty3 has no matching demand_len3 field",
		},
		{
			name: "bad length",
			form: map[string]string{"stock_len1": "six", "stock_qty1": "1"},
			want: `Invalid number "six" in field stock_len1`,
		},
		{
			name: "fractional quantity",
			form: map[string]string{"demand_len1": "2", "demand_qty1": "1.5"},
			want: `Invalid number "1.5" in field demand_qty1`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseForm(tt.form)
			require.Error(t, err)
			assert.Equal(t, KindInput, KindOf(err))
			assert.Equal(t, tt.want, Message(err))
		})
	}
}

func raw(stock, demand [][2]string) model.RawInput {
	conv := func(items [][2]string) []model.RawItem {
		out := make([]model.RawItem, len(items))
		for i, it := range items {
			qty, err := ParseQuantity(it[1])
			if err != nil {
				panic(err)
			}
			out[i] = model.RawItem{Length: dec(it[0]), Quantity: qty}
		}
		return out
	}
	return model.RawInput{Stock: conv(stock), Demand: conv(demand)}
}

func TestNormalizeAggregates(t *testing.T) {
	req, err := Normalize(raw(
		[][2]string{{"6", "2"}, {"4", "0"}, {"6.0", "3"}, {"3", "1"}},
		[][2]string{{"1.5", "2"}, {"2", "0"}, {"1.50", "5"}},
	))
	require.NoError(t, err)

	require.Len(t, req.Stock, 2)
	assert.True(t, req.Stock[0].Length.Equal(dec("6")))
	assert.Equal(t, 5, req.Stock[0].Quantity)
	assert.True(t, req.Stock[1].Length.Equal(dec("3")))

	require.Len(t, req.Demand, 1)
	assert.Equal(t, 7, req.Demand[0].Quantity, "duplicate demand lengths are summed")
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name   string
		stock  [][2]string
		demand [][2]string
		want   string
	}{
		{"negative stock quantity", [][2]string{{"5", "-1"}}, [][2]string{{"2", "1"}}, MsgNegative},
		{"negative demand length", [][2]string{{"5", "1"}}, [][2]string{{"-2", "1"}}, MsgNegative},
		{"negative wins over empty", [][2]string{{"5", "0"}}, [][2]string{{"2", "-1"}}, MsgNegative},
		{"zero length", [][2]string{{"0", "2"}}, [][2]string{{"2", "1"}}, MsgZeroLength},
		{"length below one unit", [][2]string{{"1", "1"}}, [][2]string{{"0.0000001", "1"}}, "Lengths may have at most 6 decimal places"},
		{"seven decimal places", [][2]string{{"1", "1"}}, [][2]string{{"0.5000001", "2"}}, "Lengths may have at most 6 decimal places"},
		{"precise stock length", [][2]string{{"1.00000001", "1"}}, [][2]string{{"0.5", "2"}}, "Lengths may have at most 6 decimal places"},
		{"precision before empty demand", [][2]string{{"1", "1"}, {"0.3333333", "1"}}, [][2]string{{"2", "0"}}, "Lengths may have at most 6 decimal places"},
		{"empty stock", [][2]string{{"5", "0"}}, [][2]string{{"2", "1"}}, MsgEmptyStock},
		{"no stock at all", nil, [][2]string{{"2", "1"}}, MsgEmptyStock},
		{"empty demand", [][2]string{{"5", "1"}}, [][2]string{{"2", "0"}}, MsgEmptyDemand},
		{"unreachable", [][2]string{{"5", "1"}, {"3", "4"}}, [][2]string{{"2", "1"}, {"5.5", "1"}}, "Pieces of length 5.5 cannot be cut from the available stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(raw(tt.stock, tt.demand))
			require.Error(t, err)
			assert.Equal(t, KindInput, KindOf(err))
			assert.Equal(t, tt.want, Message(err))
		})
	}
}

func TestNormalizeZeroLengthWithZeroQuantityIsDropped(t *testing.T) {
	req, err := Normalize(raw(
		[][2]string{{"0", "0"}, {"6", "1"}},
		[][2]string{{"2", "3"}},
	))
	require.NoError(t, err)
	assert.Len(t, req.Stock, 1)
}

func TestNormalizeDemandEqualToStockIsReachable(t *testing.T) {
	_, err := Normalize(raw([][2]string{{"6", "1"}}, [][2]string{{"6", "1"}}))
	assert.NoError(t, err)
}

func TestNormalizeAcceptsSixDecimalPlaces(t *testing.T) {
	req, err := Normalize(raw(
		[][2]string{{"1.000000000", "1"}, {"0.0000001", "0"}},
		[][2]string{{"0.333333", "3"}, {"0.000001", "1"}},
	))
	require.NoError(t, err)
	assert.Len(t, req.Stock, 1, "zero quantities are dropped before the precision check")
	assert.Len(t, req.Demand, 2)
}
