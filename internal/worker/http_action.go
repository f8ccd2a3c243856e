package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/shaiso/Chronos/internal/mq"
)

// excerptLimit — максимальная длина сохраняемого фрагмента ответа.
const excerptLimit = 2000

// HTTPAction — action для типа действия "http".
//
// Выполняет HTTP-запрос по снимку параметров из задачи:
//   - Method: HTTP-метод. Default: GET
//   - Target: URL запроса (обязательно)
//   - Headers: HTTP-заголовки
//   - Body: тело запроса (сериализуется в JSON)
//
// Таймаут берётся из ctx — его устанавливает Worker из политики задачи.
// Успех — любой 2xx; остальные коды — логическая ошибка с сохранением
// кода и фрагмента тела ответа.
type HTTPAction struct {
	client *http.Client
}

// NewHTTPAction создаёт HTTPAction.
func NewHTTPAction() *HTTPAction {
	// Таймаут клиента не ставим: дедлайн приходит через ctx
	return &HTTPAction{client: &http.Client{}}
}

// Execute выполняет HTTP-запрос.
func (a *HTTPAction) Execute(ctx context.Context, task *mq.ExecuteTaskPayload) (*Result, error) {
	if task.Target == "" {
		return nil, fmt.Errorf("%w: target url is required", ErrHTTPRequest)
	}

	method := task.Method
	if method == "" {
		method = http.MethodGet
	}

	// Тело запроса
	var bodyReader io.Reader
	if len(task.Body) > 0 {
		bodyBytes, err := json.Marshal(task.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: marshal body: %v", ErrHTTPRequest, err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, task.Target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrHTTPRequest, err)
	}

	for key, val := range task.Headers {
		req.Header.Set(key, val)
	}

	// Content-Type по умолчанию для запросов с body
	if bodyReader != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHTTPRequest, err)
	}
	defer resp.Body.Close()

	excerpt := readExcerpt(resp.Body)
	status := resp.StatusCode

	// Успех — только 2xx
	if status < 200 || status > 299 {
		return &Result{
			HTTPStatus: &status,
			Excerpt:    excerpt,
			Error:      fmt.Sprintf("HTTP %d", status),
		}, nil
	}

	return &Result{
		HTTPStatus: &status,
		Excerpt:    excerpt,
	}, nil
}

// readExcerpt читает не больше excerptLimit байт тела ответа.
func readExcerpt(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, excerptLimit))
	if err != nil {
		return ""
	}
	return string(data)
}
