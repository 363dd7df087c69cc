package ingest

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

const labeledCSV = "订单编号,商品成本(整单-CNY),包材费(CNY),三方仓操作费(CNY),其他成本(CNY)\n" +
	"SN-001,12.50,1.20,3.00,0.30\n" +
	"SN-002,8.00,0,0,0\n"

func TestParseCSV(t *testing.T) {
	t.Run("utf8 with BOM", func(t *testing.T) {
		data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(labeledCSV)...)
		rows, err := parseCSV(data)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "SN-001", rows[0].Get("订单编号"))
		assert.Equal(t, "12.50", rows[0].Get("商品成本(整单-CNY)"))
		assert.Equal(t, 2, rows[0].LineNumber)
	})

	t.Run("gbk transcoded before header matching", func(t *testing.T) {
		gbk, _, err := transform.Bytes(simplifiedchinese.GBK.NewEncoder(), []byte(labeledCSV))
		require.NoError(t, err)

		rows, err := parseCSV(gbk)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "SN-001", rows[0].Get("订单编号"))
	})

	t.Run("skips empty rows and pads short records", func(t *testing.T) {
		data := []byte("a,b\n1,2\n,\n3\n")
		rows, err := parseCSV(data)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, "3", rows[1].Get("a"))
		assert.Equal(t, "", rows[1].Get("b"))
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := parseCSV(nil)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})
}

func buildXLSX(t *testing.T, records [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, record := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &record))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParseBytes_Sniffing(t *testing.T) {
	t.Run("xlsx detected by magic", func(t *testing.T) {
		data := buildXLSX(t, [][]any{
			{"platformOrderSn", "accountCurrencyTotalPurchasePrice"},
			{"SN-100", "42.10"},
		})

		rows, err := ParseBytes(data)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, "SN-100", rows[0].Get("platformOrderSn"))
		assert.Equal(t, "42.10", rows[0].Get("accountCurrencyTotalPurchasePrice"))
	})

	t.Run("csv and xlsx with equivalent content parse identically", func(t *testing.T) {
		csvRows, err := ParseBytes([]byte("订单编号,包材费(CNY)\nSN-7,1.50\n"))
		require.NoError(t, err)

		xlsxRows, err := ParseBytes(buildXLSX(t, [][]any{
			{"订单编号", "包材费(CNY)"},
			{"SN-7", "1.50"},
		}))
		require.NoError(t, err)

		require.Len(t, csvRows, 1)
		require.Len(t, xlsxRows, 1)
		assert.Equal(t, csvRows[0].Data, xlsxRows[0].Data)
	})
}

func TestToCostRow(t *testing.T) {
	t.Run("labeled scheme", func(t *testing.T) {
		rows, err := parseCSV([]byte(labeledCSV))
		require.NoError(t, err)

		row, ok, err := ToCostRow(rows[0])
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "SN-001", row.OrderSN)
		assert.True(t, row.PurchaseTotal.Equal(decimal.RequireFromString("12.50")))
		assert.True(t, row.PackagingCost.Equal(decimal.RequireFromString("1.20")))
		assert.True(t, row.ForwarderFreight.Equal(decimal.RequireFromString("3.00")))
		assert.True(t, row.OtherCost.Equal(decimal.RequireFromString("0.30")))
	})

	t.Run("machine field scheme", func(t *testing.T) {
		rows, err := parseCSV([]byte(
			"platformOrderSn,accountCurrencyTotalPurchasePrice,packagingCost,accountCurrencyForwarderFreight,accountCurrencyOtherCost\n" +
				"SN-010,5.55,0.10,0.20,0.30\n"))
		require.NoError(t, err)

		row, ok, err := ToCostRow(rows[0])
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "SN-010", row.OrderSN)
		assert.True(t, row.PurchaseTotal.Equal(decimal.RequireFromString("5.55")))
	})

	t.Run("label wins over machine name when both present", func(t *testing.T) {
		rows, err := parseCSV([]byte(
			"订单编号,platformOrderSn,商品成本(整单-CNY),accountCurrencyTotalPurchasePrice\n" +
				"SN-LABEL,SN-FIELD,1.00,2.00\n"))
		require.NoError(t, err)

		row, ok, err := ToCostRow(rows[0])
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "SN-LABEL", row.OrderSN)
		assert.True(t, row.PurchaseTotal.Equal(decimal.RequireFromString("1.00")))
	})

	t.Run("missing serial is skip not error", func(t *testing.T) {
		rows, err := parseCSV([]byte("订单编号,包材费(CNY)\n,9.99\n"))
		require.NoError(t, err)

		_, ok, err := ToCostRow(rows[0])
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing cost columns default to zero", func(t *testing.T) {
		rows, err := parseCSV([]byte("订单编号\nSN-1\n"))
		require.NoError(t, err)

		row, ok, err := ToCostRow(rows[0])
		require.NoError(t, err)
		require.True(t, ok)
		assert.True(t, row.PurchaseTotal.IsZero())
		assert.True(t, row.OtherCost.IsZero())
	})

	t.Run("thousands separators tolerated", func(t *testing.T) {
		rows, err := parseCSV([]byte("订单编号,商品成本(整单-CNY)\nSN-1,\"1,234.56\"\n"))
		require.NoError(t, err)

		row, _, err := ToCostRow(rows[0])
		require.NoError(t, err)
		assert.True(t, row.PurchaseTotal.Equal(decimal.RequireFromString("1234.56")))
	})

	t.Run("malformed amount is an error", func(t *testing.T) {
		rows, err := parseCSV([]byte("订单编号,商品成本(整单-CNY)\nSN-1,abc\n"))
		require.NoError(t, err)

		_, ok, err := ToCostRow(rows[0])
		assert.True(t, ok)
		assert.Error(t, err)
	})
}
