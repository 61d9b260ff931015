package httpservice

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panelkitchens/quotekit/pkg/logging"
)

// GetLogger retrieves the contextual logger from the request.
func GetLogger(c *gin.Context) logging.Logger {
	return logging.FromContext(c.Request.Context())
}

// RespondSuccess sends a standard success response.
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

// RespondCreated sends a standard created response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"data": data})
}

// RespondFile sends data as a downloadable attachment.
func RespondFile(c *gin.Context, contentType, fileName string, data []byte) {
	c.Header("Content-Disposition", ContentDisposition(fileName))
	c.Data(http.StatusOK, contentType, data)
}

// ContentDisposition formats an attachment header for fileName.
func ContentDisposition(fileName string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); v != "" {
		return v
	}
	return "attachment"
}
