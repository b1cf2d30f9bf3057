package handlers

import (
	"net/http"
	"strings"
	"time"

	"atelier-backend/internal/database"
	"atelier-backend/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"golang.org/x/crypto/bcrypt"
)

type createEmployeeRequest struct {
	Username  string  `json:"username" binding:"required,min=3"`
	Password  string  `json:"password" binding:"required,min=6"`
	Role      string  `json:"role" binding:"required"`
	FullName  string  `json:"full_name" binding:"required,min=2"`
	Phone     string  `json:"phone"`
	Salary    float64 `json:"salary"`
	HiredAt   string  `json:"hired_at"` // YYYY-MM-DD
	ManagerID *uint   `json:"manager_id"`
}

func ListEmployees(c *gin.Context) {
	offset, limit := pagination(c)

	q := database.DB.Model(&models.Employee{})
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q = q.Where("LOWER(full_name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var total int64
	q.Count(&total)

	var employees []models.Employee
	if err := q.Preload("User").Preload("Assignments.Entity").
		Order("full_name asc").Offset(offset).Limit(limit).Find(&employees).Error; err != nil {
		internalError(c)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": employees, "total": total})
}

func GetEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var employee models.Employee
	if err := database.DB.Preload("User").Preload("Assignments.Entity").First(&employee, id).Error; err != nil {
		notFound(c, "employee")
		return
	}
	c.JSON(http.StatusOK, employee)
}

// CreateEmployee creates the backing user and the employee row together.
func CreateEmployee(c *gin.Context) {
	var req createEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	role := models.UserRole(req.Role)
	switch role {
	case models.RoleManager, models.RoleAccountant, models.RoleWorker:
	default:
		validationFailed(c, map[string][]string{"role": {"role must be manager, accountant or worker"}})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	var count int64
	database.DB.Model(&models.User{}).Where("username = ?", req.Username).Count(&count)
	if count > 0 {
		validationFailed(c, map[string][]string{"username": {"username already taken"}})
		return
	}

	if req.ManagerID != nil {
		var manager models.Employee
		if err := database.DB.First(&manager, *req.ManagerID).Error; err != nil {
			validationFailed(c, map[string][]string{"manager_id": {"unknown manager"}})
			return
		}
	}

	var hiredAt *time.Time
	if req.HiredAt != "" {
		t, err := time.Parse("2006-01-02", req.HiredAt)
		if err != nil {
			validationFailed(c, map[string][]string{"hired_at": {"expected YYYY-MM-DD"}})
			return
		}
		hiredAt = &t
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		internalError(c)
		return
	}

	employee := models.Employee{
		FullName:  strings.TrimSpace(req.FullName),
		Phone:     req.Phone,
		Salary:    req.Salary,
		HiredAt:   hiredAt,
		ManagerID: req.ManagerID,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		user := models.User{
			Username:     req.Username,
			PasswordHash: string(hash),
			Role:         role,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		employee.UserID = user.ID
		return tx.Create(&employee).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "employee", employee.ID, "create", "created employee "+employee.FullName)
	c.JSON(http.StatusCreated, employee)
}

type updateEmployeeRequest struct {
	FullName  string  `json:"full_name" binding:"required,min=2"`
	Phone     string  `json:"phone"`
	Salary    float64 `json:"salary"`
	ManagerID *uint   `json:"manager_id"`
}

func UpdateEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var employee models.Employee
	if err := database.DB.First(&employee, id).Error; err != nil {
		notFound(c, "employee")
		return
	}

	var req updateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"body": {err.Error()}})
		return
	}

	if req.ManagerID != nil {
		if *req.ManagerID == employee.ID {
			validationFailed(c, map[string][]string{"manager_id": {"employee cannot manage themselves"}})
			return
		}
		var manager models.Employee
		if err := database.DB.First(&manager, *req.ManagerID).Error; err != nil {
			validationFailed(c, map[string][]string{"manager_id": {"unknown manager"}})
			return
		}
	}

	employee.FullName = strings.TrimSpace(req.FullName)
	employee.Phone = req.Phone
	employee.Salary = req.Salary
	employee.ManagerID = req.ManagerID

	if err := database.DB.Save(&employee).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "employee", employee.ID, "update", "updated employee "+employee.FullName)
	c.JSON(http.StatusOK, employee)
}

// DeleteEmployee refuses to remove an employee who still holds pending
// custodies or has subordinates. Nothing is mutated on refusal.
func DeleteEmployee(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var employee models.Employee
	if err := database.DB.First(&employee, id).Error; err != nil {
		notFound(c, "employee")
		return
	}

	var activeCustodies int64
	database.DB.Model(&models.Custody{}).
		Where("user_id = ? AND id NOT IN (?)", employee.UserID,
			database.DB.Model(&models.CustodyReturn{}).Select("custody_id")).
		Count(&activeCustodies)
	if activeCustodies > 0 {
		badRequest(c, "cannot delete employee with active custodies")
		return
	}

	var subordinates int64
	database.DB.Model(&models.Employee{}).Where("manager_id = ?", employee.ID).Count(&subordinates)
	if subordinates > 0 {
		badRequest(c, "cannot delete employee with subordinates")
		return
	}

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("employee_id = ?", employee.ID).Delete(&models.EntityAssignment{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&employee).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, employee.UserID).Error
	})
	if err != nil {
		internalError(c)
		return
	}

	logAction(c, "employee", employee.ID, "delete", "deleted employee "+employee.FullName)
	c.JSON(http.StatusOK, gin.H{"message": "employee deleted"})
}

type assignmentRequest struct {
	EntityID uint `json:"entity_id" binding:"required"`
}

func AddEmployeeAssignment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var employee models.Employee
	if err := database.DB.First(&employee, id).Error; err != nil {
		notFound(c, "employee")
		return
	}

	var req assignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationFailed(c, map[string][]string{"entity_id": {"entity_id is required"}})
		return
	}

	var entity models.Entity
	if err := database.DB.First(&entity, req.EntityID).Error; err != nil {
		validationFailed(c, map[string][]string{"entity_id": {"unknown entity"}})
		return
	}

	var count int64
	database.DB.Model(&models.EntityAssignment{}).
		Where("employee_id = ? AND entity_id = ?", employee.ID, entity.ID).
		Count(&count)
	if count > 0 {
		validationFailed(c, map[string][]string{"entity_id": {"employee is already assigned to this entity"}})
		return
	}

	assignment := models.EntityAssignment{EmployeeID: employee.ID, EntityID: entity.ID}
	if err := database.DB.Create(&assignment).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "employee", employee.ID, "assignment", "assigned to "+entity.Name)
	c.JSON(http.StatusCreated, assignment)
}

func RemoveEmployeeAssignment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	aid, ok := parseID(c, "aid")
	if !ok {
		return
	}

	var assignment models.EntityAssignment
	if err := database.DB.Where("id = ? AND employee_id = ?", aid, id).First(&assignment).Error; err != nil {
		notFound(c, "assignment")
		return
	}

	if err := database.DB.Delete(&assignment).Error; err != nil {
		internalError(c)
		return
	}

	logAction(c, "employee", id, "assignment_removed", "")
	c.JSON(http.StatusOK, gin.H{"message": "assignment removed"})
}
