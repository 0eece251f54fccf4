package reviewsapi

import (
	"errors"
	"net/http"

	"github.com/joshjon/kit/errtag"
	"github.com/labstack/echo/v4"
)

// jsonError maps errtag-tagged errors to appropriate HTTP status codes,
// falling back to a generic 500 for anything untagged.
func jsonError(c echo.Context, err error) error {
	code := http.StatusInternalServerError
	msg := "internal server error"

	var tagger errtag.Tagger
	if errors.As(err, &tagger) {
		code = tagger.Code()
		msg = tagger.Msg()
	}

	return c.JSON(code, errorResponse(msg))
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}
