package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"atelier-backend/internal/config"
	"atelier-backend/internal/database"
	"atelier-backend/internal/export"
	"atelier-backend/internal/middleware"
	"atelier-backend/internal/models"
	"atelier-backend/internal/uploads"

	"github.com/gin-gonic/gin"
)

var (
	cfg   *config.Config
	files *uploads.Store
)

// Setup wires the package with runtime dependencies before routing.
func Setup(c *config.Config, store *uploads.Store) {
	cfg = c
	files = store
}

// respondError writes the shared error envelope {message, errors}.
func respondError(c *gin.Context, status int, message string, errs map[string][]string) {
	if errs == nil {
		errs = map[string][]string{}
	}
	c.JSON(status, gin.H{"message": message, "errors": errs})
}

func notFound(c *gin.Context, what string) {
	respondError(c, http.StatusNotFound, what+" not found", nil)
}

func badRequest(c *gin.Context, message string) {
	respondError(c, http.StatusBadRequest, message, nil)
}

func forbidden(c *gin.Context, message string) {
	respondError(c, http.StatusForbidden, message, nil)
}

// validationFailed reports a 422 with per-field reasons.
func validationFailed(c *gin.Context, errs map[string][]string) {
	respondError(c, http.StatusUnprocessableEntity, "validation failed", errs)
}

// unprocessable reports a 422 business-rule violation with a reason list.
func unprocessable(c *gin.Context, message string, reasons []string) {
	respondError(c, http.StatusUnprocessableEntity, message, map[string][]string{"reasons": reasons})
}

func internalError(c *gin.Context) {
	respondError(c, http.StatusInternalServerError, "internal server error", nil)
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, fmt.Sprintf("invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func currentUserID(c *gin.Context) uint {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return 0
	}
	return claims.UserID
}

// logAction writes a history row attributed to the current user.
func logAction(c *gin.Context, entity string, entityID uint, action, details string) {
	database.CreateHistoryLog(currentUserID(c), entity, entityID, action, details)
}

// entityScopeAllowed checks whether the current user may act on the given
// entity. Admins may act everywhere; other users must have an employee
// record assigned to the entity.
func entityScopeAllowed(c *gin.Context, entityID uint) bool {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return false
	}
	if claims.Role == models.RoleAdmin {
		return true
	}

	var employee models.Employee
	if err := database.DB.Where("user_id = ?", claims.UserID).First(&employee).Error; err != nil {
		return false
	}

	var count int64
	database.DB.Model(&models.EntityAssignment{}).
		Where("employee_id = ? AND entity_id = ?", employee.ID, entityID).
		Count(&count)
	return count > 0
}

// pagination reads page/per_page query params with sane bounds.
func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 200 {
		perPage = 25
	}
	return (page - 1) * perPage, perPage
}

// writeExport streams a table as csv (default) or xlsx.
func writeExport(c *gin.Context, t *export.Table) {
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.xlsx", t.Name))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := t.WriteXLSX(c.Writer); err != nil {
			internalError(c)
		}
	case "csv":
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", t.Name))
		c.Header("Content-Type", "text/csv")
		if err := t.WriteCSV(c.Writer); err != nil {
			internalError(c)
		}
	default:
		badRequest(c, "unknown export format")
	}
}
