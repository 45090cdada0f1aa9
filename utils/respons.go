package utils

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// FormatCurrency memformat nominal dengan pemisah ribuan untuk struk.
// Contoh: 125000 -> "125.000"
func FormatCurrency(amount decimal.Decimal) string {
	formatted := amount.StringFixed(0)

	neg := strings.HasPrefix(formatted, "-")
	if neg {
		formatted = formatted[1:]
	}

	var result []string
	for i := len(formatted); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		result = append([]string{formatted[start:i]}, result...)
	}

	out := strings.Join(result, ".")
	if neg {
		out = "-" + out
	}
	return out
}
