package inventory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"

	"github.com/mamadbah2/stockkeeper/internal/config"
	"github.com/mamadbah2/stockkeeper/internal/domain/models"
)

// Client exposes the inventory backend operations used by the application.
type Client interface {
	GetProducts(ctx context.Context) ([]models.RawProduct, error)
	GetDepartments(ctx context.Context) ([]models.Department, error)
	CreateMovement(ctx context.Context, movement models.StockMovement) (*models.MovementResponse, error)
	ListMovements(ctx context.Context, limit int) ([]models.MovementRecord, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
	validate   *validator.Validate
}

// NewClient builds an inventory API client using the provided configuration values.
func NewClient(cfg config.InventoryAPIConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		restyClient.SetAuthToken(cfg.Token)
	}

	return &APIClient{
		httpClient: restyClient,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// envelope is the backend's standard response wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Errors  []string        `json:"errors"`
}

// GetProducts lists the product catalog.
func (c *APIClient) GetProducts(ctx context.Context) ([]models.RawProduct, error) {
	var products []models.RawProduct
	if err := c.getList(ctx, "/products", nil, &products); err != nil {
		return nil, fmt.Errorf("get products: %w", err)
	}
	return products, nil
}

// GetDepartments lists the departments goods can be distributed to.
func (c *APIClient) GetDepartments(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := c.getList(ctx, "/departments", nil, &departments); err != nil {
		return nil, fmt.Errorf("get departments: %w", err)
	}
	return departments, nil
}

// ListMovements returns the most recent movements, newest first as the backend orders them.
func (c *APIClient) ListMovements(ctx context.Context, limit int) ([]models.MovementRecord, error) {
	params := map[string]string{}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}
	var records []models.MovementRecord
	if err := c.getList(ctx, "/stock-movements", params, &records); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	return records, nil
}

// CreateMovement posts a movement. An error is returned only when no answer
// was received; error statuses are decoded into the response envelope and
// reported through Success=false.
func (c *APIClient) CreateMovement(ctx context.Context, movement models.StockMovement) (*models.MovementResponse, error) {
	if err := c.validate.Struct(movement); err != nil {
		return &models.MovementResponse{Success: false, Errors: shapeErrors(err)}, nil
	}

	result := new(models.MovementResponse)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(movement).
		SetResult(result).
		SetError(result).
		Post("/stock-movements")
	if err != nil {
		return nil, fmt.Errorf("create stock movement: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		// Some deployments answer errors without the success flag.
		result.Success = false
		if result.Message == "" && len(result.Errors) == 0 && !strings.Contains(resp.Header().Get("Content-Type"), "json") {
			result.Message = strings.TrimSpace(resp.String())
		}
	}
	return result, nil
}

func (c *APIClient) getList(ctx context.Context, path string, params map[string]string, out any) error {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return err
	}

	body := bytes.TrimSpace(resp.Body())
	if resp.StatusCode() >= http.StatusBadRequest {
		var env envelope
		_ = json.Unmarshal(body, &env)
		return fmt.Errorf("inventory api error: status=%d, message=%s", resp.StatusCode(), env.describe())
	}

	return decodeList(body, out)
}

// decodeList accepts either a bare JSON array or the standard envelope
// with the array under data.
func decodeList(body []byte, out any) error {
	if len(body) == 0 {
		return errors.New("empty response body")
	}
	if body[0] == '[' {
		return json.Unmarshal(body, out)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return fmt.Errorf("request unsuccessful: %s", env.describe())
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (e envelope) describe() string {
	if len(e.Errors) > 0 {
		return strings.Join(e.Errors, "; ")
	}
	return e.Message
}

func shapeErrors(err error) []string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return out
}
