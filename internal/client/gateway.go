package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
)

// APIError — ошибка бэкенда: статус + message из тела
// {message, status, timestamp}.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned status %d", e.StatusCode)
}

// Gateway — HTTP-клиент REST-контракта бэкенда. Состояния не держит,
// вся логика синхронизации живёт в Store.
type Gateway struct {
	base string
	http *http.Client
}

func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *Gateway) ListDirectories(ctx context.Context) ([]model.DirectoryAndCount, error) {
	var out []model.DirectoryAndCount
	if err := g.do(ctx, http.MethodGet, "/api/directories", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Gateway) CreateDirectory(ctx context.Context, dto model.DirectoryCreate) (model.Directory, error) {
	var out model.Directory
	err := g.do(ctx, http.MethodPost, "/api/directories", dto, &out)
	return out, err
}

func (g *Gateway) UpdateDirectory(ctx context.Context, dto model.Directory) (model.Directory, error) {
	var out model.Directory
	err := g.do(ctx, http.MethodPut, "/api/directories/"+strconv.FormatInt(dto.ID, 10), dto, &out)
	return out, err
}

func (g *Gateway) ListRecords(ctx context.Context, directoryID int64, page, size int, search string) (model.RecordPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	if search != "" {
		q.Set("search", search)
	}
	var out model.RecordPage
	err := g.do(ctx, http.MethodGet, "/api/records/"+strconv.FormatInt(directoryID, 10)+"?"+q.Encode(), nil, &out)
	return out, err
}

func (g *Gateway) CreateRecord(ctx context.Context, directoryID int64, values map[string]any) (model.Record, error) {
	payload := map[string]any{"values": values}
	var out model.Record
	err := g.do(ctx, http.MethodPost, "/api/records/"+strconv.FormatInt(directoryID, 10), payload, &out)
	return out, err
}

func (g *Gateway) DeleteRecord(ctx context.Context, recordID int64) error {
	return g.do(ctx, http.MethodDelete, "/api/records/"+strconv.FormatInt(recordID, 10), nil, nil)
}

func (g *Gateway) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.base+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return apiErrorFrom(resp)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func apiErrorFrom(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var envelope struct {
		Message string `json:"message"`
	}
	if b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16)); err == nil {
		if json.Unmarshal(b, &envelope) == nil && envelope.Message != "" {
			apiErr.Message = envelope.Message
		}
	}
	return apiErr
}
