package handlers

import (
	"net/http"
	"strconv"

	"bistro-analytics-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ExportHandler streams filtered datasets as downloadable files.
type ExportHandler struct {
	Service      *services.ExportService
	DefaultLimit int
}

func NewExportHandler(service *services.ExportService, defaultLimit int) *ExportHandler {
	return &ExportHandler{
		Service:      service,
		DefaultLimit: defaultLimit,
	}
}

// Export renders one dataset as csv or xlsx (type query parameter, sales
// default; format query parameter, csv default).
func (h *ExportHandler) Export(c *gin.Context) {
	f, ok := parseFilter(c, h.DefaultLimit)
	if !ok {
		return
	}

	file, err := h.Service.Export(c.Request.Context(), f, c.Query("type"), c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Header("X-Record-Count", strconv.Itoa(file.Records))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
