package relay

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rollcall/internal/notify"
)

// Handler serves POST /absent: the public relay for absence alerts. It
// delegates to the same dispatcher the marking flow uses, so there is exactly
// one path from an absence event to a message. Responses are plain text to
// match the existing callers.
func Handler(d *notify.Dispatcher) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req notify.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.String(http.StatusBadRequest, "Invalid request body.")
			return
		}

		err := d.SendAbsenceAlert(c.Request.Context(), req)
		switch {
		case err == nil:
			c.String(http.StatusOK, "SMS sent successfully.")
		case errors.Is(err, notify.ErrMissingDestination):
			c.String(http.StatusBadRequest, "Phone number is required.")
		default:
			c.String(http.StatusInternalServerError, "Error sending SMS: "+err.Error())
		}
	}
}
