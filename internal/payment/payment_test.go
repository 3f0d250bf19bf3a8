package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"taskmind/pkg/idgen"

	"github.com/stretchr/testify/require"
)

func newIDs(t *testing.T) *idgen.Generator {
	t.Helper()
	g, err := idgen.New(1)
	require.NoError(t, err)
	return g
}

func TestDemoGatewayPayoutIDsAreUnique(t *testing.T) {
	g := NewDemoGateway(newIDs(t), "rzp_test_key", "whsec")

	a, err := g.CreatePayout(context.Background(), PayoutRequest{Amount: 83000, Currency: "INR", UPIID: "a@upi"})
	require.NoError(t, err)
	b, err := g.CreatePayout(context.Background(), PayoutRequest{Amount: 83000, Currency: "INR", UPIID: "a@upi"})
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(a.ID, "payout_"))
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, PayoutProcessed, a.Status)
	require.Equal(t, "rzp_test_key", g.PublicKey())
}

func TestDemoGatewayFailPayouts(t *testing.T) {
	g := NewDemoGateway(newIDs(t), "", "")
	g.FailPayouts = true
	_, err := g.CreatePayout(context.Background(), PayoutRequest{Amount: 100})
	require.Error(t, err)
}

func TestVerifyWebhook(t *testing.T) {
	g := NewDemoGateway(newIDs(t), "", "whsec")
	body := []byte(`{"event":"payout.processed"}`)

	require.True(t, g.VerifyWebhook(body, Sign("whsec", body)))
	require.False(t, g.VerifyWebhook(body, Sign("other", body)))
	require.False(t, g.VerifyWebhook(body, ""))

	unsigned := NewDemoGateway(newIDs(t), "", "")
	require.False(t, unsigned.VerifyWebhook(body, Sign("", body)))
}

func TestParsePayoutEvent(t *testing.T) {
	body := []byte(`{"event":"payout.processed","payload":{"payout":{"entity":{"id":"pout_1","status":"processed"}}}}`)
	ev, err := ParsePayoutEvent(body)
	require.NoError(t, err)
	require.Equal(t, "pout_1", ev.PayoutID)

	done, ok := ev.Settled()
	require.True(t, done)
	require.True(t, ok)

	_, err = ParsePayoutEvent([]byte(`{"event":"payout.processed"}`))
	require.ErrorIs(t, err, ErrInvalidWebhook)

	done, _ = PayoutEvent{Status: PayoutQueued}.Settled()
	require.False(t, done)

	for _, status := range []string{PayoutFailed, PayoutReversed, PayoutRejected, PayoutCancelled} {
		done, ok := PayoutEvent{Status: status}.Settled()
		require.True(t, done, status)
		require.False(t, ok, status)
	}

	ev, err = ParsePayoutEvent([]byte(`{"event":"payout.rejected","payload":{"payout":{"entity":{"id":"pout_2","reference_id":"tx-9","status":"rejected"}}}}`))
	require.NoError(t, err)
	require.Equal(t, "tx-9", ev.ReferenceID)
}

func TestRazorpayCreatePayout(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/payouts", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "key", user)
		require.Equal(t, "secret", pass)
		require.Equal(t, "ref-1", r.Header.Get("X-Payout-Idempotency"))

		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &got))
		_, _ = w.Write([]byte(`{"id":"pout_abc","status":"queued"}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{BaseURL: srv.URL + "/", KeyID: "key", KeySecret: "secret", AccountNumber: "2323"})
	p, err := g.CreatePayout(context.Background(), PayoutRequest{
		Amount: 83000, Currency: "INR", UPIID: "w@upi", Email: "w@example.com", ReferenceID: "ref-1",
	})
	require.NoError(t, err)
	require.Equal(t, "pout_abc", p.ID)
	require.Equal(t, PayoutQueued, p.Status)

	require.Equal(t, "2323", got["account_number"])
	require.Equal(t, float64(83000), got["amount"])
	require.Equal(t, "UPI", got["mode"])
	fund := got["fund_account"].(map[string]interface{})
	require.Equal(t, "w@upi", fund["vpa"].(map[string]interface{})["address"])
	require.Equal(t, "User", fund["contact"].(map[string]interface{})["name"])
}

func TestRazorpayErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`))
	}))
	defer srv.Close()

	g := NewRazorpayGateway(RazorpayConfig{BaseURL: srv.URL, KeyID: "key", KeySecret: "secret"})
	_, err := g.CreateOrder(context.Background(), OrderRequest{Amount: 10, Currency: "INR"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "BAD_REQUEST_ERROR")
}

func TestParseOrderEvent(t *testing.T) {
	body := []byte(`{"event":"order.paid","payload":{"order":{"entity":{"id":"order_1","status":"paid","notes":{"plan_id":"pro","user_id":"u"}}}}}`)
	name, err := EventName(body)
	require.NoError(t, err)
	require.Equal(t, "order.paid", name)

	ev, err := ParseOrderEvent(body)
	require.NoError(t, err)
	require.Equal(t, "order_1", ev.OrderID)
	require.Equal(t, "pro", ev.Notes["plan_id"])

	_, err = EventName([]byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidWebhook)
}
