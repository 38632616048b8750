package resthttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	// HeaderKeyRequestID request id header key
	headerKeyRequestID = "X-Request-Id"
)

var runOnce sync.Once
var restyClient *resty.Client

// Client resty client
func Client() *resty.Client {
	runOnce.Do(func() {
		restyClient = resty.New().
			SetHeader("Content-Type", "application/json").
			SetHeader("Charset", "utf-8").
			SetTimeout(10 * time.Second)
	})

	return restyClient
}

// Request new resty request
func Request(ctx context.Context) *resty.Request {
	return Client().R().SetContext(ctx)
}

// WithRequestID resty request with request id
func WithRequestID(ctx context.Context, requestID string) *resty.Request {
	return Request(ctx).SetHeader(headerKeyRequestID, requestID)
}

// ErrorResponse body of a failed request
type ErrorResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Msg)
}

// Post posts body as json and parses the response into resp
func Post(ctx context.Context, requestID, url string, body, resp interface{}) error {
	r, err := WithRequestID(ctx, requestID).SetBody(body).Post(url)
	if err != nil {
		logrus.WithError(err).Errorln("resthttp.Post", url)
		return err
	}

	return ParseResponse(r, resp)
}

// ParseResponse parse response
func ParseResponse(r *resty.Response, obj interface{}) error {
	//fail
	if !r.IsSuccess() {
		var e ErrorResponse
		if err := json.Unmarshal(r.Body(), &e); err == nil && e.Msg != "" {
			return &e
		}

		if len(r.Body()) > 0 {
			return errors.New(string(r.Body()))
		}

		return errors.New(r.Status())
	}

	//success
	if obj != nil {
		return json.Unmarshal(r.Body(), obj)
	}

	return nil
}

// Get query url and parse the response into resp
func Get(ctx context.Context, url string, query map[string]string, resp interface{}) error {
	r, err := Request(ctx).SetQueryParams(query).Get(url)
	if err != nil {
		logrus.WithError(err).Errorln("resthttp.Get", url)
		return err
	}

	return ParseResponse(r, resp)
}
