package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// envelope is the uniform error body returned for every failed request.
type envelope struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// sensitiveAttributes lists payload and query fields that must never reach
// the logs in clear text.
var sensitiveAttributes = map[string]bool{
	"key":          true,
	"access_token": true,
	"password":     true,
	"token":        true,
}

// MaskSensitive replaces the values of sensitive keys in a decoded JSON
// object with "****". Nested objects and arrays of objects are walked too,
// since login payloads may arrive wrapped.
func MaskSensitive(data map[string]any) map[string]any {
	for k, v := range data {
		if sensitiveAttributes[k] {
			data[k] = "****"
			continue
		}
		switch t := v.(type) {
		case map[string]any:
			data[k] = MaskSensitive(t)
		case []any:
			for i, el := range t {
				if m, ok := el.(map[string]any); ok {
					t[i] = MaskSensitive(m)
				}
			}
		}
	}
	return data
}

// SanitizeBody parses raw JSON and returns a compact rendering with
// sensitive values masked. Non-JSON bodies come back empty; there is
// nothing structured worth logging in that case.
func SanitizeBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		out, _ := json.Marshal(MaskSensitive(obj))
		return string(out)
	}
	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err == nil {
		for i := range list {
			list[i] = MaskSensitive(list[i])
		}
		out, _ := json.Marshal(list)
		return string(out)
	}
	return ""
}

// SanitizeQuery masks sensitive query parameters and renders the rest.
func SanitizeQuery(q url.Values) string {
	masked := url.Values{}
	for k, vs := range q {
		if sensitiveAttributes[k] {
			masked[k] = []string{"****"}
			continue
		}
		masked[k] = vs
	}
	return masked.Encode()
}

// NewHTTPErrorHandler builds the Echo error handler that maps the error
// taxonomy onto HTTP responses. Taxonomy errors pass through with their
// kind's status; anything unclassified is logged with full (sanitized)
// request context and reported as a generic 500 so internals never leak.
func NewHTTPErrorHandler(logger *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *Error
		if errors.As(err, &apiErr) {
			_ = c.JSON(apiErr.Status(), envelope{Error: apiErr.Message, Code: apiErr.Code})
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusNotFound {
				nf := NotFound()
				_ = c.JSON(nf.Status(), envelope{Error: nf.Message, Code: nf.Code})
				return
			}
			_ = c.JSON(he.Code, envelope{Error: fmt.Sprint(he.Message), Code: "error"})
			return
		}

		body, _ := c.Get("sanitized_body").(string)
		user, _ := c.Get("user_email").(string)
		logger.Errorw("unhandled API error",
			"error", err,
			"endpoint", c.Path(),
			"method", c.Request().Method,
			"user", user,
			"data", body,
			"path", c.Request().URL.Path,
			"query", SanitizeQuery(c.QueryParams()),
		)
		_ = c.JSON(http.StatusInternalServerError, envelope{Error: "Something went wrong.", Code: "unknown"})
	}
}
