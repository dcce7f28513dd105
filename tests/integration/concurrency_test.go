package integration

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConcurrentTopups fires 50 concurrent top-up settlements against a
// wallet that can only fund a handful of them. The wallet must never be
// overdrawn and the final balance must match exactly the settlements
// that succeeded.
func TestConcurrentTopups(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t, "kasir1", testPassword)

	// Wallet holds 500000; each top-up debits 50000 + 500 fee, so at
	// most 9 can succeed.
	const workers = 50
	var succeeded, rejected atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp := app.do(t, http.MethodPost, "/api/v1/settlements", token, map[string]any{
				"payment_method": "cash",
				"reference_id":   fmt.Sprintf("TOPUP-%03d", n),
				"lines": []map[string]any{
					{"topup": map[string]any{
						"wallet_id":       app.walletID.String(),
						"nominal_request": "50000",
						"nominal_pay":     "52000",
						"provider_fee":    "500",
					}},
				},
			})
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusCreated:
				succeeded.Add(1)
			case http.StatusUnprocessableEntity:
				rejected.Add(1)
			default:
				t.Errorf("unexpected status %d", resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(9), succeeded.Load())
	assert.Equal(t, int64(workers-9), rejected.Load())

	// Balance accounting: debit side never overdraws, credit side
	// matches the successes exactly.
	finalWallet := app.state.wallets[app.walletID].Balance
	assert.False(t, finalWallet.IsNegative())
	expectedWallet := decimal.NewFromInt(500000).Sub(decimal.NewFromInt(50500).Mul(decimal.NewFromInt(succeeded.Load())))
	assert.True(t, finalWallet.Equal(expectedWallet),
		"wallet %s != expected %s", finalWallet, expectedWallet)

	expectedCash := decimal.NewFromInt(1000000).Add(decimal.NewFromInt(52000).Mul(decimal.NewFromInt(succeeded.Load())))
	assert.True(t, app.state.stores[app.storeID].Cash.Equal(expectedCash))

	require.Equal(t, int(succeeded.Load()), len(app.state.txns))
}

// TestConcurrentProductSales verifies that with negative stock disabled
// concurrent sales can never oversell the on-hand quantity.
func TestConcurrentProductSales(t *testing.T) {
	app := newTestApp(t)
	defer app.close()
	token := app.login(t, "kasir1", testPassword)

	// 30 units on hand, 60 buyers of one unit each.
	const buyers = 60
	var succeeded atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			resp := app.do(t, http.MethodPost, "/api/v1/settlements", token, map[string]any{
				"payment_method": "cash",
				"reference_id":   fmt.Sprintf("SALE-%03d", n),
				"lines": []map[string]any{
					{"product_id": app.productID.String(), "quantity": 1, "unit_price": "15000"},
				},
			})
			defer resp.Body.Close()
			if resp.StatusCode == http.StatusCreated {
				succeeded.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(30), succeeded.Load())
	assert.Equal(t, 0, app.state.stocks[stockKey(app.storeID, app.productID)].Stock)

	// Every successful sale left exactly one ledger entry
	assert.Len(t, app.state.flows, 30)
	expectedCash := decimal.NewFromInt(1000000).Add(decimal.NewFromInt(15000).Mul(decimal.NewFromInt(30)))
	assert.True(t, app.state.stores[app.storeID].Cash.Equal(expectedCash))
}
