package nadex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingCSV = `instrument_id,underlying,strike,expiry
NDX.BTC-70000-31MAY,BTC,70000,2025-05-31T15:00:00Z
NDX.SPX-5300-30JUN,SPX,5300.5,2025-06-30T16:00:00Z
NDX.FED-CUT-JUN,FEDFUNDS,,2025-06-18T18:00:00Z
NDX.BAD-EXPIRY,BTC,70000,not-a-date
short,row
`

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var slept []time.Duration
	prev := sleep
	sleep = func(d time.Duration) { slept = append(slept, d) }
	t.Cleanup(func() { sleep = prev })
	return &slept
}

func TestListContracts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contracts.csv", r.URL.Path)
		w.Write([]byte(listingCSV))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	contracts, err := c.ListContracts(context.Background())
	require.NoError(t, err)
	require.Len(t, contracts, 3, "bad expiry and short rows are skipped")

	assert.Equal(t, "NDX.BTC-70000-31MAY", contracts[0].InstrumentID)
	assert.Equal(t, "BTC", contracts[0].Underlying)
	require.NotNil(t, contracts[0].Strike)
	assert.True(t, contracts[0].Strike.Equal(decimal.NewFromInt(70000)))
	assert.Equal(t, time.Date(2025, 5, 31, 15, 0, 0, 0, time.UTC), contracts[0].Expiry)

	require.NotNil(t, contracts[1].Strike)
	assert.True(t, contracts[1].Strike.Equal(decimal.RequireFromString("5300.5")))

	assert.Nil(t, contracts[2].Strike, "empty strike column stays nil")
}

func TestGetContract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contract/NDX.BTC-70000-31MAY", r.URL.Path)
		w.Write([]byte(`{"contract": {"id": "NDX.BTC-70000-31MAY"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	raw, err := c.GetContract(context.Background(), "NDX.BTC-70000-31MAY")
	require.NoError(t, err)
	assert.JSONEq(t, `{"contract": {"id": "NDX.BTC-70000-31MAY"}}`, string(raw))
}

func TestGetContractRetriesOn429And503(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			slept := stubSleep(t)

			var calls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				if calls == 1 {
					w.WriteHeader(status)
					return
				}
				w.Write([]byte(`{"contract": {"id": "X"}}`))
			}))
			defer srv.Close()

			c := NewClient(srv.URL)
			_, err := c.GetContract(context.Background(), "X")
			require.NoError(t, err)
			assert.Equal(t, 2, calls)
			assert.Equal(t, []time.Duration{retryDelay}, *slept)
		})
	}
}

func TestGetContractNoRetryOnOtherErrors(t *testing.T) {
	slept := stubSleep(t)

	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetContract(context.Background(), "X")
	assert.ErrorContains(t, err, "HTTP 404")
	assert.Equal(t, 1, calls)
	assert.Empty(t, *slept)
}
