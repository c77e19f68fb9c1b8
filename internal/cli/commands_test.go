package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePurchaseOrderLines(t *testing.T) {
	lines, err := parsePurchaseOrderLines([]string{"3:20", " 4:5:12.50 "})
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, uint(3), lines[0].ProductID)
	assert.Equal(t, 20, lines[0].Quantity)
	assert.Nil(t, lines[0].UnitPrice)

	require.NotNil(t, lines[1].UnitPrice)
	assert.Equal(t, "12.50", lines[1].UnitPrice.String())
}

func TestParsePurchaseOrderLinesRejectsMalformed(t *testing.T) {
	for _, raw := range []string{"3", "x:2", "3:y", "3:2:abc", "1:2:3:4"} {
		_, err := parsePurchaseOrderLines([]string{raw})
		assert.Error(t, err, "raw %q should fail", raw)
	}
}

func TestParseReceiptLines(t *testing.T) {
	receipts, err := parseReceiptLines([]string{"11:4", "12:1"})
	require.NoError(t, err)
	require.Len(t, receipts, 2)
	assert.Equal(t, uint(11), receipts[0].ItemID)
	assert.Equal(t, 4, receipts[0].Quantity)

	_, err = parseReceiptLines([]string{"11"})
	assert.Error(t, err)
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := NewRootCommand()
	names := map[string]bool{}
	for _, cmd := range root.Commands() {
		names[cmd.Name()] = true
	}
	for _, want := range []string{"migrate", "seed", "purchase-order", "sweep", "token", "authz"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	cmd, _, err := root.Find([]string{"po", "receive"})
	require.NoError(t, err)
	assert.Equal(t, "receive", cmd.Name())
	assert.NotNil(t, cmd.Flags().Lookup("item"))
}
