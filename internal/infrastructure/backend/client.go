package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"patient-appointments-bff/config"
	"patient-appointments-bff/internal/domain/entity"
	domainRepo "patient-appointments-bff/internal/domain/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	appointmentsPath = "/api/getappointments"
	sendOTPPath      = "/api/sendotp"
	verifyOTPPath    = "/api/verifyotp"

	defaultTimeout  = 15 * time.Second
	maxErrorBodyLen = 300
)

var (
	// ErrMissingToken is returned before any request when a protected call has no bearer token
	ErrMissingToken = errors.New("backend bearer token is missing")
	// ErrTransport wraps network level failures
	ErrTransport = errors.New("backend transport failure")
)

// StatusError is returned for non-2xx backend responses
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Body)
}

// Client wraps the healthcare backend REST calls used by the patient portal.
type Client struct {
	httpClient *http.Client
	baseURL    string
	log        *logrus.Logger
	inflight   singleflight.Group
}

var (
	_ domainRepo.AppointmentSource = (*Client)(nil)
	_ domainRepo.OTPGateway        = (*Client)(nil)
)

func NewClient(cfg config.BackendConfig, log *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		log:        log,
	}
}

type appointmentsRequest struct {
	Status    entity.AppointmentStatus `json:"status"`
	Tab       entity.BackendTab        `json:"tab"`
	StartDate string                   `json:"start_date,omitempty"`
	EndDate   string                   `json:"end_date,omitempty"`
}

type appointmentsResponse struct {
	Data []entity.Appointment `json:"data"`
}

// FetchAppointments posts the slice query and returns the backend's list.
// Identical queries for the same token that overlap in time share one request.
func (c *Client) FetchAppointments(ctx context.Context, bearerToken string, query entity.AppointmentQuery) ([]entity.Appointment, error) {
	if strings.TrimSpace(bearerToken) == "" {
		return nil, ErrMissingToken
	}

	body := appointmentsRequest{Status: query.Status, Tab: query.Tab}
	if query.StartDate != nil {
		body.StartDate = query.StartDate.Format(entity.DateLayout)
	}
	if query.EndDate != nil {
		body.EndDate = query.EndDate.Format(entity.DateLayout)
	}

	key := fmt.Sprintf("%s|%d|%s|%s|%s", bearerToken, body.Status, body.Tab, body.StartDate, body.EndDate)
	// Shared request runs detached, bounded by the http client timeout; callers wait on their own ctx.
	sharedCtx := context.WithoutCancel(ctx)
	ch := c.inflight.DoChan(key, func() (interface{}, error) {
		var resp appointmentsResponse
		if err := c.doJSON(sharedCtx, http.MethodPost, appointmentsPath, bearerToken, body, &resp); err != nil {
			return nil, err
		}
		return resp.Data, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("get appointments: %w", ctx.Err())
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, fmt.Errorf("get appointments: %w", res.Err)
	}

	shared := res.Val.([]entity.Appointment)
	appointments := make([]entity.Appointment, len(shared))
	copy(appointments, shared)
	return appointments, nil
}

type verifyOTPRequest struct {
	entity.OTPIdentity
	OTP string `json:"otp"`
}

type verifyOTPResponse struct {
	Token string `json:"token"`
	Data  struct {
		ID   json.RawMessage `json:"id"`
		Name string          `json:"name"`
	} `json:"data"`
}

func (c *Client) SendOTP(ctx context.Context, identity entity.OTPIdentity) error {
	if err := c.doJSON(ctx, http.MethodPost, sendOTPPath, "", identity, nil); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}
	return nil
}

func (c *Client) VerifyOTP(ctx context.Context, identity entity.OTPIdentity, code string) (*entity.BackendLogin, error) {
	var resp verifyOTPResponse
	if err := c.doJSON(ctx, http.MethodPost, verifyOTPPath, "", verifyOTPRequest{OTPIdentity: identity, OTP: code}, &resp); err != nil {
		return nil, fmt.Errorf("verify otp: %w", err)
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("verify otp: %w", ErrMissingToken)
	}
	return &entity.BackendLogin{
		Token:  resp.Token,
		UserID: strings.Trim(string(resp.Data.ID), `"`),
		Name:   resp.Data.Name,
	}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path, bearerToken string, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > maxErrorBodyLen {
			msg = msg[:maxErrorBodyLen]
		}
		c.log.WithFields(logrus.Fields{"status": resp.StatusCode, "path": path}).Warnf("Backend non-2xx response: %s", msg)
		return &StatusError{StatusCode: resp.StatusCode, Body: msg}
	}

	if len(respBody) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
