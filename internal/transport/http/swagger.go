package http

import (
	"net/http"
	"os"
	"sync"

	"github.com/ghodss/yaml"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"github.com/njprem/account-core/internal/util"
)

// RegisterSwagger serves the Swagger UI under /swagger and the YAML document
// at specPath, converted to JSON, as /swagger/doc.json. The document is read
// on first request and cached.
func RegisterSwagger(e *echo.Echo, specPath string) {
	var (
		once     sync.Once
		jsonSpec []byte
		loadErr  error
	)
	e.GET("/swagger/doc.json", func(c echo.Context) error {
		once.Do(func() {
			data, err := os.ReadFile(specPath)
			if err != nil {
				loadErr = err
				return
			}
			jsonSpec, loadErr = yaml.YAMLToJSON(data)
		})
		if loadErr != nil {
			requestLogger(c).Error("load swagger spec", zap.String("path", specPath), zap.Error(loadErr))
			return c.JSON(http.StatusInternalServerError, util.Error("unable to load swagger spec"))
		}
		return c.Blob(http.StatusOK, echo.MIMEApplicationJSONCharsetUTF8, jsonSpec)
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}
