package chain

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/karat/core"
)

func TestUTxOsAt(t *testing.T) {
	txHash := strings.Repeat("aa", 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/address_utxos", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []interface{}{"addr_test1xyz"}, req["_addresses"])
		assert.Equal(t, true, req["_extended"])

		io.WriteString(w, `[
			{"tx_hash": "`+txHash+`", "tx_index": 2, "value": "5000000",
			 "asset_list": [{"policy_id": "`+strings.Repeat("bb", 28)+`", "asset_name": "636572742d303031", "quantity": "1"}],
			 "inline_datum": {"bytes": "d87980"}}
		]`)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, time.Second, zerolog.Nop())
	utxos, err := p.UTxOsAt(context.Background(), "addr_test1xyz")
	require.NoError(t, err)

	require.Len(t, utxos, 1)
	assert.Equal(t, core.UTxORef{TxHash: txHash, Index: 2}, utxos[0].Ref)
	assert.Equal(t, uint64(5_000_000), utxos[0].Value.Coin())
	assert.Equal(t, uint64(1), utxos[0].Value[strings.Repeat("bb", 28)+".636572742d303031"])
	assert.Equal(t, []byte{0xd8, 0x79, 0x80}, utxos[0].Datum)
}

func TestUTxOsAtRejectsMalformedAssetUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"tx_hash": "`+strings.Repeat("aa", 32)+`", "tx_index": 0, "value": "5000000",
			 "asset_list": [{"policy_id": "not-hex", "asset_name": "zz", "quantity": "1"}]}
		]`)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, time.Second, zerolog.Nop())
	_, err := p.UTxOsAt(context.Background(), "addr_test1xyz")
	assert.ErrorIs(t, err, core.ErrScriptInvalid)
}

func TestUTxOsAtEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, time.Second, zerolog.Nop())
	utxos, err := p.UTxOsAt(context.Background(), "addr_test1xyz")
	require.NoError(t, err)
	assert.Empty(t, utxos)
}

func TestUTxOsAtServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, time.Second, zerolog.Nop())
	_, err := p.UTxOsAt(context.Background(), "addr_test1xyz")
	assert.Error(t, err)
}

func TestSubmit(t *testing.T) {
	txHash := strings.Repeat("cc", 32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/submittx", r.URL.Path)
		require.Equal(t, "application/cbor", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x84, 0x01}, body)

		w.WriteHeader(http.StatusAccepted)
		io.WriteString(w, `"`+txHash+`"`)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, time.Second, zerolog.Nop())
	got, err := p.Submit(context.Background(), []byte{0x84, 0x01})
	require.NoError(t, err)
	assert.Equal(t, txHash, got)
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "BadInputsUTxO", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, time.Second, zerolog.Nop())
	_, err := p.Submit(context.Background(), []byte{0x84})
	assert.ErrorIs(t, err, core.ErrSubmissionRejected)
}

func TestSubmitTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	p := NewKoiosProvider(srv.URL, 20*time.Millisecond, zerolog.Nop())
	_, err := p.Submit(context.Background(), []byte{0x84})
	assert.ErrorIs(t, err, core.ErrProviderTimeout)
}
