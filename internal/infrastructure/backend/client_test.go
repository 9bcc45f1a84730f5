package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"patient-appointments-bff/config"
	"patient-appointments-bff/internal/domain/entity"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewClient(config.BackendConfig{BaseURL: ts.URL + "/", Timeout: 2 * time.Second}, log)
}

func TestClient_FetchAppointments_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/getappointments", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, float64(2), body["status"])
		assert.Equal(t, "completed", body["tab"])
		assert.Equal(t, "2025-01-01", body["start_date"])
		assert.Equal(t, "2025-01-31", body["end_date"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"opd_date":"2025-01-10","is_completed":1,"tenant_username":"CordeliaKareAdmin"}]}`))
	})

	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	appts, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{
		Status:    entity.AppointmentStatusActive,
		Tab:       entity.BackendTabCompleted,
		StartDate: &from,
		EndDate:   &to,
	})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, entity.AppointmentID("1"), appts[0].ID)
	assert.Equal(t, entity.CompletionStatusCompleted, appts[0].IsCompleted)
}

func TestClient_FetchAppointments_OmitsEmptyDates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "upcomming", body["tab"])
		assert.Equal(t, float64(3), body["status"])
		assert.NotContains(t, body, "start_date")
		assert.NotContains(t, body, "end_date")
		_, _ = w.Write([]byte(`{"data":null}`))
	})

	appts, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{
		Status: entity.AppointmentStatusCancelled,
		Tab:    entity.BackendTabUpcoming,
	})
	require.NoError(t, err)
	assert.Empty(t, appts)
}

func TestClient_FetchAppointments_MissingTokenSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})

	_, err := client.FetchAppointments(context.Background(), "  ", entity.AppointmentQuery{})
	assert.ErrorIs(t, err, ErrMissingToken)
	assert.Equal(t, int32(0), calls.Load())
}

func TestClient_FetchAppointments_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream failed", http.StatusBadGateway)
	})

	_, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{})
	require.Error(t, err)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestClient_FetchAppointments_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[`))
	})

	_, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{})
	assert.Error(t, err)
}

func TestClient_FetchAppointments_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := ts.URL
	ts.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	client := NewClient(config.BackendConfig{BaseURL: baseURL}, log)

	_, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{})
	assert.ErrorIs(t, err, ErrTransport)
}

func TestClient_FetchAppointments_ReturnsIndependentCopies(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"opd_date":"2025-01-10"},{"id":2,"opd_date":"2025-01-11"}]}`))
	})

	first, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{})
	require.NoError(t, err)
	first[0].ID = "mutated"

	second, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{})
	require.NoError(t, err)
	assert.Equal(t, entity.AppointmentID("1"), second[0].ID)
}

func TestClient_SendOTP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/sendotp", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "9876543210", body["mobile"])
		assert.Equal(t, "91", body["country_code"])
		w.WriteHeader(http.StatusOK)
	})

	err := client.SendOTP(context.Background(), entity.OTPIdentity{Mobile: "9876543210", CountryCode: "91"})
	assert.NoError(t, err)
}

func TestClient_VerifyOTP(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verifyotp", r.URL.Path)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "patient@example.com", body["email"])
		assert.Equal(t, "123456", body["otp"])
		_, _ = w.Write([]byte(`{"token":"backend-token","data":{"id":77,"name":"Asha"}}`))
	})

	login, err := client.VerifyOTP(context.Background(), entity.OTPIdentity{Email: "patient@example.com"}, "123456")
	require.NoError(t, err)
	assert.Equal(t, "backend-token", login.Token)
	assert.Equal(t, "77", login.UserID)
	assert.Equal(t, "Asha", login.Name)
}

func TestClient_VerifyOTP_RejectedCode(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid otp"}`))
	})

	_, err := client.VerifyOTP(context.Background(), entity.OTPIdentity{Email: "patient@example.com"}, "000000")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestClient_FetchAppointments_CancelledCallerDoesNotFailSharedFetch(t *testing.T) {
	var requests atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			close(entered)
		}
		<-release
		_, _ = w.Write([]byte(`{"data":[{"id":5,"opd_date":"2025-02-01"}]}`))
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.FetchAppointments(firstCtx, "tok-1", entity.AppointmentQuery{Status: entity.AppointmentStatusActive})
		firstErr <- err
	}()
	<-entered

	type result struct {
		appts []entity.Appointment
		err   error
	}
	second := make(chan result, 1)
	go func() {
		appts, err := client.FetchAppointments(context.Background(), "tok-1", entity.AppointmentQuery{Status: entity.AppointmentStatusActive})
		second <- result{appts, err}
	}()

	cancelFirst()
	select {
	case err := <-firstErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		require.Len(t, res.appts, 1)
		assert.Equal(t, entity.AppointmentID("5"), res.appts[0].ID)
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	assert.LessOrEqual(t, requests.Load(), int32(2))
}
