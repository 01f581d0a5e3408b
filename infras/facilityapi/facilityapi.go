package facilityapi

//go:generate go run go.uber.org/mock/mockgen -source=./facilityapi.go -destination=./mocks/facilityapi_mock.go -package=mocks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"facilitydesk/config"
	"facilitydesk/infras/otel"
	"facilitydesk/shared/constant"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	otelAttrMethod = "http.method"
	otelAttrPath   = "http.path"
)

// File is the binary part of a multipart upload.
type File struct {
	FieldName   string
	FileName    string
	ContentType string
	Body        io.Reader
}

// Multipart describes a multipart/form-data request body.
type Multipart struct {
	Fields map[string]string
	File   File
}

type Client interface {
	// Do sends body as JSON (when non-nil) and decodes a 2xx response into out (when non-nil).
	Do(ctx context.Context, method, path string, body, out any) error
	// Upload posts a multipart form and decodes a 2xx response into out.
	Upload(ctx context.Context, path string, form Multipart, out any) error
}

type client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	otel      otel.Otel
}

// New returns a client for the remote facility API. The underlying
// http.Client has no timeout: calls end when the caller's context does.
func New(config *config.Config, otel otel.Otel) Client {
	return NewWithHTTPClient(config.API.BaseURL, config.API.UserAgent, &http.Client{}, otel)
}

func NewWithHTTPClient(baseURL, userAgent string, httpClient *http.Client, otel otel.Otel) Client {
	return &client{
		http:      httpClient,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		otel:      otel,
	}
}

func (c *client) Do(ctx context.Context, method, path string, body, out any) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".Do")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		otelAttrMethod: method,
		otelAttrPath:   path,
	})

	var reader io.Reader

	if body != nil {
		payload, marshalErr := json.Marshal(body)
		if marshalErr != nil {
			return fmt.Errorf("failed to encode request body: %w", marshalErr)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	if body != nil {
		req.Header.Set(constant.RequestHeaderContentType, constant.ContentTypeJSON)
	}

	return c.send(ctx, req, out)
}

func (c *client) Upload(ctx context.Context, path string, form Multipart, out any) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelExternalScopeName, constant.OtelExternalScopeName+".Upload")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	scope.SetAttributes(map[string]any{
		otelAttrMethod: http.MethodPost,
		otelAttrPath:   path,
	})

	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	for name, value := range form.Fields {
		if err = writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", name, err)
		}
	}

	if err = writeFile(writer, form.File); err != nil {
		return err
	}

	if err = writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set(constant.RequestHeaderContentType, writer.FormDataContentType())

	return c.send(ctx, req, out)
}

func (c *client) send(ctx context.Context, req *http.Request, out any) error {
	requestID, _ := ctx.Value(constant.ContextKeyRequestID).(string)
	if requestID == constant.Empty {
		requestID = uuid.NewString()
	}

	req.Header.Set(constant.RequestHeaderAccept, constant.ContentTypeJSON)
	req.Header.Set(constant.RequestHeaderRequestID, requestID)

	if c.userAgent != constant.Empty {
		req.Header.Set(constant.RequestHeaderUserAgent, c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error().Err(err).Str("request_id", requestID).Str("url", req.URL.String()).Msg("failed to reach facility api")

		return fmt.Errorf("failed to call %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Warn().
			Int("status", resp.StatusCode).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("facility api returned an error")

		return &Error{StatusCode: resp.StatusCode, Body: payload}
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}

	if err = json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

func writeFile(writer *multipart.Writer, file File) error {
	if file.Body == nil {
		return nil
	}

	contentType := file.ContentType
	if contentType == constant.Empty {
		contentType = constant.ContentTypeOctetStream
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(file.FieldName), escapeQuotes(file.FileName)))
	header.Set(constant.RequestHeaderContentType, contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}

	if _, err = io.Copy(part, file.Body); err != nil {
		return fmt.Errorf("failed to write file %s: %w", file.FileName, err)
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
