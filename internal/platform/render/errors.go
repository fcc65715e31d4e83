package render

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospital/hms/internal/platform/apperr"
	"github.com/hospital/hms/internal/platform/auth"
)

// ErrorView is the view model of the error template.
type ErrorView struct {
	Status  int
	Message string
}

// ErrorHandler is the echo HTTPErrorHandler. API callers get
// {"message": ...}; browsers get an error page, except that a rejected
// form post is sent back to the form with the message flashed.
func ErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status := apperr.Status(err)
		msg := apperr.Message(err)
		if status >= 500 {
			rid, _ := c.Get("request_id").(string)
			logger.Error().Err(err).Str("request_id", rid).Str("path", c.Request().URL.Path).Msg("request failed")
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(status)
		case auth.IsAPIRequest(c):
			werr = c.JSON(status, map[string]string{"message": msg})
		case isFormRejection(c, status):
			SetFlash(c, FlashError, msg)
			werr = c.Redirect(http.StatusSeeOther, backTo(c))
		default:
			werr = HTML(c, status, "error", &Page{
				Title: http.StatusText(status),
				Data:  &ErrorView{Status: status, Message: msg},
			})
		}
		if werr != nil {
			logger.Error().Err(werr).Msg("write error response")
		}
	}
}

func isFormRejection(c echo.Context, status int) bool {
	if c.Request().Method != http.MethodPost {
		return false
	}
	switch status {
	case http.StatusBadRequest, http.StatusConflict, http.StatusUnauthorized, http.StatusTooManyRequests:
		return true
	}
	return false
}

// backTo returns the local path of the Referer when it points at this
// host, else the request path.
func backTo(c echo.Context) string {
	ref, err := url.Parse(c.Request().Referer())
	if err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == c.Request().Host) {
		return auth.SafeRedirect(ref.RequestURI(), c.Request().URL.Path)
	}
	return c.Request().URL.Path
}
