package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ServeFile streams a stored photo if the signed URL checks out. Files live
// on a private disk and are reachable only through these links.
func ServeFile(c *gin.Context) {
	name := c.Param("name")
	expires := c.Query("expires")
	signature := c.Query("signature")

	if !files.VerifySignature(name, expires, signature) {
		forbidden(c, "invalid or expired file link")
		return
	}

	f, err := files.Open(name)
	if err != nil {
		notFound(c, "file")
		return
	}
	defer f.Close()

	c.Header("Content-Type", "image/jpeg")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, f)
}
