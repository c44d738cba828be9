package pionex

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"
)

type apiResponse[T any] struct {
	Result  bool   `json:"result"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

const (
	retryAttempts = 5
	retryBase     = 1 * time.Second
	retryMax      = 30 * time.Second
)

// doRequest выполняет подписанный запрос с повторами и экспоненциальной
// паузой. Ошибки после исчерпания повторов терминальны для вызова.
func (c *Client) doRequest(ctx context.Context, method, path string, params map[string]string, signed bool, out any) error {
	var lastErr error
	backoff := retryBase
	for i := 0; i < retryAttempts; i++ {
		err := c.doOnce(ctx, method, path, params, signed, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !isRetryable(err) {
			return err
		}
		wait := backoff
		if isRateLimitError(err) {
			wait = backoff * 4
		}
		if wait > retryMax {
			wait = retryMax
		}
		c.log.WithComponent("pionex").WithError(err).Warn("Ошибка запроса к бирже, повторяем.")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, method, path string, params map[string]string, signed bool, out any) error {
	query := make(map[string]string, len(params)+1)
	for k, v := range params {
		query[k] = v
	}

	var bodyReader io.Reader
	var bodyStr string

	if signed {
		query["timestamp"] = fmt.Sprintf("%d", time.Now().UnixMilli())
	}

	queryStr := encodeSorted(query)
	urlStr := c.baseURL + path
	if method == http.MethodGet {
		if queryStr != "" {
			urlStr += "?" + queryStr
		}
	} else {
		payload, err := json.Marshal(query)
		if err != nil {
			return fmt.Errorf("Не удалось подготовить тело запроса: %w", err)
		}
		bodyStr = string(payload)
		bodyReader = bytes.NewReader(payload)
		if queryStr != "" {
			urlStr += "?" + queryStr
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, urlStr, bodyReader)
	if err != nil {
		return fmt.Errorf("Не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "multitradebot/1.0")

	if signed {
		pathURL := path
		if queryStr != "" {
			pathURL += "?" + queryStr
		}
		signBase := strings.ToUpper(method) + pathURL
		if method == http.MethodPost || method == http.MethodDelete {
			signBase += bodyStr
		}
		req.Header.Set("PIONEX-KEY", c.apiKey)
		req.Header.Set("PIONEX-SIGNATURE", sign(c.secret, signBase))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Ошибка запроса: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("Не удалось прочитать ответ: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("Превышен лимит запросов: 429")
	}
	if resp.StatusCode >= 500 {
		return fmt.Errorf("Ошибка сервера биржи: %s", resp.Status)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("Неуспешный статус: %s: %s", resp.Status, string(data))
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("Не удалось разобрать ответ: %w", err)
	}

	if code, msg, ok := extractAPIError(out); ok {
		return fmt.Errorf("Ошибка pionex: %s (code=%s)", msg, code)
	}

	return nil
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func encodeSorted(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	return strings.Join(parts, "&")
}

type apiError interface {
	apiError() (code, message string, failed bool)
}

func (r apiResponse[T]) apiError() (string, string, bool) {
	if r.Message == "" && r.Code == "" {
		return "", "", false
	}
	if r.Result || r.Code == "0" || r.Code == "" {
		return "", "", false
	}
	return r.Code, r.Message, true
}

func extractAPIError(v any) (string, string, bool) {
	if e, ok := v.(apiError); ok {
		return e.apiError()
	}
	return "", "", false
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "Превышен лимит запросов")
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if isRateLimitError(err) {
		return true
	}
	return strings.Contains(msg, "Ошибка сервера биржи") ||
		strings.Contains(msg, "Ошибка запроса") ||
		strings.Contains(msg, "context deadline exceeded")
}
