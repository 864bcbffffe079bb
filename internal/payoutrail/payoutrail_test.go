package payoutrail

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/doorline/backend/internal/config"
)

func newTestRail(url string) *ISO20022Rail {
	return NewISO20022Rail(&config.RailConfig{
		Mode:      "iso20022",
		BaseURL:   url,
		APIKey:    "secret",
		Timeout:   2 * time.Second,
		DebtorBIC: "DOORUS33XXX",
	}, zap.NewNop())
}

func TestISO20022RailTransfer(t *testing.T) {
	t.Run("posts pacs.008 with idempotency key", func(t *testing.T) {
		var gotKey, gotAuth, gotBody string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/transfers", r.URL.Path)
			gotKey = r.Header.Get("Idempotency-Key")
			gotAuth = r.Header.Get("Authorization")
			b, _ := io.ReadAll(r.Body)
			gotBody = string(b)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"transferId":"trf_123","status":"ACSC"}`))
		}))
		defer srv.Close()

		receipt, err := newTestRail(srv.URL).Transfer(context.Background(), TransferRequest{
			IdempotencyKey: "abc123",
			BeneficiaryID:  "venue-1",
			Amount:         4250,
			Currency:       "USD",
		})
		require.NoError(t, err)
		assert.Equal(t, "trf_123", receipt.TransferID)
		assert.Equal(t, "abc123", gotKey)
		assert.Equal(t, "Bearer secret", gotAuth)
		assert.Contains(t, gotBody, "<?xml")
		assert.Contains(t, gotBody, "42.5")
		assert.Contains(t, gotBody, "venue-1")
	})

	t.Run("server error is retryable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := newTestRail(srv.URL).Transfer(context.Background(), TransferRequest{IdempotencyKey: "k", Amount: 1, Currency: "USD"})
		assert.ErrorIs(t, err, ErrTransferUnavailable)
	})

	t.Run("client error is a rejection", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"error":"unknown beneficiary"}`))
		}))
		defer srv.Close()

		_, err := newTestRail(srv.URL).Transfer(context.Background(), TransferRequest{IdempotencyKey: "k", Amount: 1, Currency: "USD"})
		assert.ErrorIs(t, err, ErrTransferRejected)
	})

	t.Run("missing transfer id", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"PDNG"}`))
		}))
		defer srv.Close()

		_, err := newTestRail(srv.URL).Transfer(context.Background(), TransferRequest{IdempotencyKey: "k", Amount: 1, Currency: "USD"})
		assert.ErrorIs(t, err, ErrTransferUnavailable)
	})
}

func TestCreatePacs008TruncatesIdentifiers(t *testing.T) {
	rail := newTestRail("http://rail.invalid")
	key := strings.Repeat("f", 64)
	doc := rail.CreatePacs008(TransferRequest{IdempotencyKey: key, BeneficiaryID: "promoter-9", Amount: 1999, Currency: "USD"})

	require.Len(t, doc.CdtTrfTxInf, 1)
	tx := doc.CdtTrfTxInf[0]
	assert.Len(t, string(*tx.PmtId.InstrId), 35)
	assert.InDelta(t, 19.99, tx.IntrBkSttlmAmt.Value, 0.0001)
	assert.Equal(t, "1", string(doc.GrpHdr.NbOfTxs))
}

func TestSandboxRailDeduplicates(t *testing.T) {
	rail := NewSandboxRail()
	req := TransferRequest{IdempotencyKey: "key-1", BeneficiaryID: "venue-1", Amount: 100, Currency: "USD"}

	first, err := rail.Transfer(context.Background(), req)
	require.NoError(t, err)
	second, err := rail.Transfer(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.TransferID, second.TransferID)
	assert.Equal(t, 1, rail.Transfers())

	_, err = rail.Transfer(context.Background(), TransferRequest{IdempotencyKey: "key-2", Amount: 0})
	assert.ErrorIs(t, err, ErrTransferRejected)
}

func TestNewSelectsMode(t *testing.T) {
	r, err := New(&config.RailConfig{Mode: "sandbox"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SandboxRail{}, r)

	_, err = New(&config.RailConfig{Mode: "iso20022"}, zap.NewNop())
	assert.Error(t, err)

	_, err = New(&config.RailConfig{Mode: "carrier-pigeon"}, zap.NewNop())
	assert.Error(t, err)
}
