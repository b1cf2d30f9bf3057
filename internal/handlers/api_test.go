package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"atelier-backend/internal/config"
	"atelier-backend/internal/database"
	"atelier-backend/internal/handlers"
	"atelier-backend/internal/models"
	"atelier-backend/internal/server"
	"atelier-backend/internal/uploads"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testJWTSecret = "test-secret"

type testEnv struct {
	server *httptest.Server
	db     *gorm.DB
	token  string
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDB(t)

	cfg := &config.Config{
		JWTSecret:    testJWTSecret,
		AppEnv:       "test",
		UploadDir:    t.TempDir(),
		UploadSecret: testJWTSecret,
	}
	store, err := uploads.NewStore(cfg.UploadDir, cfg.UploadSecret)
	require.NoError(t, err)
	handlers.Setup(cfg, store)

	router := server.NewRouter(cfg)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	admin := models.User{Username: "admin", PasswordHash: string(hash), Role: models.RoleAdmin}
	require.NoError(t, db.Create(&admin).Error)

	env := &testEnv{server: srv, db: db}

	resp := env.do(t, "POST", "/api/v1/auth/login", map[string]string{
		"username": "admin", "password": "password",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp struct {
		Token string `json:"token"`
	}
	decodeBody(t, resp, &loginResp)
	require.NotEmpty(t, loginResp.Token)
	env.token = loginResp.Token

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

// seedBranch creates an entity with its inventory and one rentable cloth.
func seedBranch(t *testing.T, db *gorm.DB, name, clothCode string) (models.Entity, models.Inventory, models.Cloth) {
	t.Helper()

	entity := models.Entity{Name: name, Kind: models.EntityBranch}
	require.NoError(t, db.Create(&entity).Error)
	inv := models.Inventory{EntityID: entity.ID}
	require.NoError(t, db.Create(&inv).Error)

	clothType := models.ClothType{Name: name + " dresses"}
	require.NoError(t, db.Create(&clothType).Error)
	cloth := models.Cloth{
		Code: clothCode, TypeID: clothType.ID,
		Status: models.ClothReadyForRent, InventoryID: &inv.ID,
		RentPrice: 100, SalePrice: 400,
	}
	require.NoError(t, db.Create(&cloth).Error)

	return entity, inv, cloth
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := setupTestServer(t)

	resp := (&testEnv{server: env.server}).do(t, "POST", "/api/v1/auth/login", map[string]string{
		"username": "admin", "password": "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequestWithoutTokenRejected(t *testing.T) {
	env := setupTestServer(t)

	resp := (&testEnv{server: env.server}).do(t, "GET", "/api/v1/clients", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestClientDuplicatePhone(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, "POST", "/api/v1/clients", map[string]any{
		"name": "Amira", "phone": "555-0100",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", "/api/v1/clients", map[string]any{
		"name": "Second", "phone": "555-0100",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var errResp struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &errResp)
	assert.Contains(t, errResp.Errors, "phone")
}

// Full rental lifecycle: create -> pay -> deliver -> availability window ->
// return -> custody return -> finish.
func TestOrderRentalLifecycle(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-001")

	client := models.Client{Name: "Amira", Phone: "555-0200"}
	require.NoError(t, env.db.Create(&client).Error)

	// T = 2025-07-10, 3 days of rent
	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id":      cloth.ID,
			"type":          "rent",
			"price":         100,
			"days_of_rent":  3,
			"delivery_date": "2025-07-10",
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, 100.0, order.TotalPrice)
	assert.Equal(t, 100.0, order.Remaining)
	assert.Equal(t, models.OrderCreated, order.Status)

	// the piece is held for the order now
	var held models.Cloth
	require.NoError(t, env.db.First(&held, cloth.ID).Error)
	assert.Equal(t, models.ClothReserved, held.Status)

	// money custody against the order
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/custody", order.ID), map[string]any{
		"kind": "money", "amount": 50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var custody models.Custody
	decodeBody(t, resp, &custody)

	// pay in full
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/add-payment", order.ID), map[string]any{
		"amount": 100, "method": "cash",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// overpayment is refused
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/add-payment", order.ID), map[string]any{
		"amount": 10, "method": "cash",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// deliver
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/deliver", order.ID), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rent models.Rent
	require.NoError(t, env.db.Where("cloth_id = ?", cloth.ID).First(&rent).Error)
	assert.Equal(t, "2025-07-13", rent.ReturnDate.Format("2006-01-02"))

	require.NoError(t, env.db.First(&held, cloth.ID).Error)
	assert.Equal(t, models.ClothRented, held.Status)
	assert.Nil(t, held.InventoryID)

	// buffered window [T-2, T+5] is blocked, outside it is free
	checkAvail := func(delivery string, want bool) {
		resp := env.do(t, "GET",
			fmt.Sprintf("/api/v1/clothes/%d/available?delivery_date=%s&days_of_rent=1", cloth.ID, delivery), nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var avail struct {
			Available bool `json:"available"`
		}
		decodeBody(t, resp, &avail)
		assert.Equal(t, want, avail.Available, "delivery %s", delivery)
	}
	checkAvail("2025-07-08", false) // T-2
	checkAvail("2025-07-11", false)
	checkAvail("2025-07-15", false) // T+5
	checkAvail("2025-07-16", true)
	checkAvail("2025-07-06", true) // ends 07-07, before the buffer

	// finish is blocked while the item is out and custody pending
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/finish", order.ID), nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp struct {
		Errors map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &errResp)
	assert.NotEmpty(t, errResp.Errors["reasons"])

	// bring the piece back
	var item models.OrderItem
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&item).Error)
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/return", order.ID), map[string]any{
		"item_ids": []uint{item.ID},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, env.db.First(&held, cloth.ID).Error)
	assert.Equal(t, models.ClothReadyForRent, held.Status)
	require.NotNil(t, held.InventoryID)
	assert.Equal(t, inv.ID, *held.InventoryID)

	// give the deposit back (cashbox holds payment + custody money)
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/custody/%d/return", custody.ID), map[string]any{
		"disposition": "returned", "proof_photo": "proof.jpg",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// deciding twice is refused
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/custody/%d/return", custody.ID), map[string]any{
		"disposition": "forfeited",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// now the order can finish
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/finish", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var finished models.Order
	decodeBody(t, resp, &finished)
	assert.Equal(t, models.OrderFinished, finished.Status)
}

func TestOverlappingBookingRejected(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-002")

	client := models.Client{Name: "Amira", Phone: "555-0201"}
	require.NoError(t, env.db.Create(&client).Error)

	// an existing rental period, already returned, still blocks its window
	item := models.OrderItem{OrderID: 999, ClothID: cloth.ID, Type: models.ItemRent}
	require.NoError(t, env.db.Create(&item).Error)
	rent := models.Rent{
		OrderItemID:  item.ID,
		ClothID:      cloth.ID,
		DeliveryDate: mustDate("2025-08-10"),
		ReturnDate:   mustDate("2025-08-13"),
		Returned:     true,
	}
	require.NoError(t, env.db.Create(&rent).Error)

	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id":      cloth.ID,
			"type":          "rent",
			"price":         100,
			"days_of_rent":  2,
			"delivery_date": "2025-08-12",
		}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp struct {
		Errors map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &errResp)
	assert.NotEmpty(t, errResp.Errors["reasons"])
}

// Two undelivered orders must not be able to book the same cloth for
// overlapping windows: the second creation is refused outright.
func TestOverlappingPendingOrderRejected(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-050")

	client := models.Client{Name: "Amira", Phone: "555-0210"}
	require.NoError(t, env.db.Create(&client).Error)

	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id": cloth.ID, "type": "rent", "price": 100,
			"days_of_rent": 3, "delivery_date": "2025-07-10",
		}},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id": cloth.ID, "type": "rent", "price": 100,
			"days_of_rent": 3, "delivery_date": "2025-07-11",
		}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp struct {
		Errors map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &errResp)
	require.NotEmpty(t, errResp.Errors["reasons"])
	assert.Contains(t, errResp.Errors["reasons"][0], "booked")

	// a clear window on the same cloth is still bookable
	resp = env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id": cloth.ID, "type": "rent", "price": 100,
			"days_of_rent": 2, "delivery_date": "2025-07-20",
		}},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

// Even with two conflicting pending orders in the database, only one of
// them can deliver; the loser gets a 422 and writes no Rent row.
func TestDeliverRefusedWhenWindowTaken(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-051")

	client := models.Client{Name: "Amira", Phone: "555-0211"}
	require.NoError(t, env.db.Create(&client).Error)

	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id": cloth.ID, "type": "rent", "price": 100,
			"days_of_rent": 3, "delivery_date": "2025-07-10",
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var orderA models.Order
	decodeBody(t, resp, &orderA)

	// a conflicting order slipped in behind the API's back
	orderB := models.Order{ClientID: client.ID, InventoryID: inv.ID, Status: models.OrderCreated}
	require.NoError(t, env.db.Create(&orderB).Error)
	deliveryB := mustDate("2025-07-11")
	itemB := models.OrderItem{
		OrderID: orderB.ID, ClothID: cloth.ID, Type: models.ItemRent,
		Price: 100, DaysOfRent: 3, DeliveryDate: &deliveryB,
	}
	require.NoError(t, env.db.Create(&itemB).Error)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/deliver", orderA.ID), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/deliver", orderB.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var rents int64
	env.db.Model(&models.Rent{}).Where("cloth_id = ? AND canceled = ?", cloth.ID, false).Count(&rents)
	assert.Equal(t, int64(1), rents)
}

func TestDuplicateClothInOneOrderRejected(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-052")

	client := models.Client{Name: "Amira", Phone: "555-0212"}
	require.NoError(t, env.db.Create(&client).Error)

	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{
			{"cloth_id": cloth.ID, "type": "rent", "price": 100, "days_of_rent": 2, "delivery_date": "2025-07-10"},
			{"cloth_id": cloth.ID, "type": "rent", "price": 100, "days_of_rent": 2, "delivery_date": "2025-07-20"},
		},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp struct {
		Errors map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &errResp)
	require.NotEmpty(t, errResp.Errors["reasons"])
	assert.Contains(t, errResp.Errors["reasons"][0], "more than once")
}

func TestBuyOrderRules(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-003")

	second := models.Cloth{Code: "DR-004", TypeID: cloth.TypeID,
		Status: models.ClothReadyForRent, InventoryID: &inv.ID}
	require.NoError(t, env.db.Create(&second).Error)

	client := models.Client{Name: "Amira", Phone: "555-0202"}
	require.NoError(t, env.db.Create(&client).Error)

	// buy orders must have exactly one item
	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{
			{"cloth_id": cloth.ID, "type": "buy", "price": 400},
			{"cloth_id": second.ID, "type": "rent", "price": 100, "days_of_rent": 1, "delivery_date": "2025-08-01"},
		},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// single buy item is fine, but delivery needs full payment first
	resp = env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items":        []map[string]any{{"cloth_id": cloth.ID, "type": "buy", "price": 400}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/deliver", order.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/add-payment", order.ID), map[string]any{
		"amount": 400, "method": "card",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/deliver", order.ID), nil)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var sold models.Cloth
	require.NoError(t, env.db.First(&sold, cloth.ID).Error)
	assert.Equal(t, models.ClothSold, sold.Status)
	assert.Nil(t, sold.InventoryID)
}

func TestTransferApprovalFlow(t *testing.T) {
	env := setupTestServer(t)
	_, fromInv, cloth := seedBranch(t, env.db, "Branch A", "TR-001")
	from := models.Entity{}
	require.NoError(t, env.db.First(&from, fromInv.EntityID).Error)

	to, toInv, _ := seedBranch(t, env.db, "Branch B", "TR-XXX")

	resp := env.do(t, "POST", "/api/v1/transfers", map[string]any{
		"from_entity_id": from.ID,
		"to_entity_id":   to.ID,
		"cloth_ids":      []uint{cloth.ID},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var transfer models.Transfer
	decodeBody(t, resp, &transfer)
	assert.Equal(t, models.TransferPending, transfer.Status)

	var transferItem models.TransferItem
	require.NoError(t, env.db.Where("transfer_id = ?", transfer.ID).First(&transferItem).Error)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/transfers/%d/approve-items", transfer.ID), map[string]any{
		"item_ids": []uint{transferItem.ID},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		Status models.TransferStatus `json:"status"`
	}
	decodeBody(t, resp, &result)
	assert.Equal(t, models.TransferApproved, result.Status)

	// the cloth moved to the destination inventory, and only there
	var moved models.Cloth
	require.NoError(t, env.db.First(&moved, cloth.ID).Error)
	require.NotNil(t, moved.InventoryID)
	assert.Equal(t, toInv.ID, *moved.InventoryID)

	// deciding the same item again is refused
	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/transfers/%d/reject-items", transfer.ID), map[string]any{
		"item_ids": []uint{transferItem.ID},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	// audit trail recorded the decision
	var actions int64
	env.db.Model(&models.TransferAction{}).Where("transfer_id = ?", transfer.ID).Count(&actions)
	assert.GreaterOrEqual(t, actions, int64(2))
}

func TestTransferRequiresClothInSourceInventory(t *testing.T) {
	env := setupTestServer(t)
	_, _, cloth := seedBranch(t, env.db, "Branch A", "TR-010")
	to, _, _ := seedBranch(t, env.db, "Branch B", "TR-011")
	other, _, _ := seedBranch(t, env.db, "Branch C", "TR-012")

	// cloth lives in Branch A, not in Branch C
	resp := env.do(t, "POST", "/api/v1/transfers", map[string]any{
		"from_entity_id": other.ID,
		"to_entity_id":   to.ID,
		"cloth_ids":      []uint{cloth.ID},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestEmployeeDeleteGuards(t *testing.T) {
	env := setupTestServer(t)

	resp := env.do(t, "POST", "/api/v1/employees", map[string]any{
		"username": "manager1", "password": "secret123",
		"role": "manager", "full_name": "Mona Manager",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var manager models.Employee
	decodeBody(t, resp, &manager)

	resp = env.do(t, "POST", "/api/v1/employees", map[string]any{
		"username": "worker1", "password": "secret123",
		"role": "worker", "full_name": "Wael Worker",
		"manager_id": manager.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var worker models.Employee
	decodeBody(t, resp, &worker)

	// manager has a subordinate: delete must fail with 400 and not mutate
	resp = env.do(t, "DELETE", fmt.Sprintf("/api/v1/employees/%d", manager.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var still models.Employee
	assert.NoError(t, env.db.First(&still, manager.ID).Error)

	// the worker registered a custody that is still pending
	client := models.Client{Name: "Amira", Phone: "555-0220"}
	require.NoError(t, env.db.Create(&client).Error)
	order := models.Order{ClientID: client.ID, InventoryID: 1, Status: models.OrderCreated}
	require.NoError(t, env.db.Create(&order).Error)
	custody := models.Custody{
		OrderID: order.ID, Kind: models.CustodyDocument,
		Description: "passport", UserID: &worker.UserID,
	}
	require.NoError(t, env.db.Create(&custody).Error)

	resp = env.do(t, "DELETE", fmt.Sprintf("/api/v1/employees/%d", worker.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var workerStill models.Employee
	assert.NoError(t, env.db.First(&workerStill, worker.ID).Error)

	// once the custody is decided the worker can go
	ret := models.CustodyReturn{CustodyID: custody.ID, Disposition: models.CustodyReturned, ProofPhoto: "p.jpg"}
	require.NoError(t, env.db.Create(&ret).Error)

	resp = env.do(t, "DELETE", fmt.Sprintf("/api/v1/employees/%d", worker.ID), nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCustodyReturnInsufficientCashbox(t *testing.T) {
	env := setupTestServer(t)
	entity, inv, _ := seedBranch(t, env.db, "Main", "DR-020")

	client := models.Client{Name: "Amira", Phone: "555-0203"}
	require.NoError(t, env.db.Create(&client).Error)
	order := models.Order{ClientID: client.ID, InventoryID: inv.ID, Status: models.OrderCreated}
	require.NoError(t, env.db.Create(&order).Error)

	resp := env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/custody", order.ID), map[string]any{
		"kind": "money", "amount": 50,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var custody models.Custody
	decodeBody(t, resp, &custody)

	// drain the cashbox behind the ledger's back
	require.NoError(t, env.db.Create(&models.Transaction{
		EntityID: entity.ID, Direction: models.DirectionOut,
		Kind: models.TxManual, Amount: 50, Details: "drawer emptied",
	}).Error)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/custody/%d/return", custody.ID), map[string]any{
		"disposition": "returned", "proof_photo": "proof.jpg",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var errResp struct {
		Errors map[string][]string `json:"errors"`
	}
	decodeBody(t, resp, &errResp)
	require.NotEmpty(t, errResp.Errors["reasons"])
	assert.Contains(t, errResp.Errors["reasons"][0], "insufficient cashbox balance")

	// nothing was decided
	var decided int64
	env.db.Model(&models.CustodyReturn{}).Where("custody_id = ?", custody.ID).Count(&decided)
	assert.Zero(t, decided)
}

func TestFactoryPipelineEndpoint(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-030")

	client := models.Client{Name: "Amira", Phone: "555-0204"}
	require.NoError(t, env.db.Create(&client).Error)

	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items":        []map[string]any{{"cloth_id": cloth.ID, "type": "tailoring", "price": 250}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	var item models.OrderItem
	require.NoError(t, env.db.Where("order_id = ?", order.ID).First(&item).Error)
	assert.Equal(t, models.FactoryNew, item.FactoryStatus)

	// a legal step
	resp = env.do(t, "PUT", fmt.Sprintf("/api/v1/factory/orders/items/%d/status", item.ID), map[string]any{
		"status": "pending_factory_approval",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// skipping ahead is refused
	resp = env.do(t, "PUT", fmt.Sprintf("/api/v1/factory/orders/items/%d/status", item.ID), map[string]any{
		"status": "closed",
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestOrderCancelFreesCloths(t *testing.T) {
	env := setupTestServer(t)
	_, inv, cloth := seedBranch(t, env.db, "Main", "DR-040")

	client := models.Client{Name: "Amira", Phone: "555-0205"}
	require.NoError(t, env.db.Create(&client).Error)

	resp := env.do(t, "POST", "/api/v1/orders", map[string]any{
		"client_id":    client.ID,
		"inventory_id": inv.ID,
		"items": []map[string]any{{
			"cloth_id": cloth.ID, "type": "rent", "price": 100,
			"days_of_rent": 2, "delivery_date": "2025-09-01",
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/add-payment", order.ID), map[string]any{
		"amount": 30, "method": "cash",
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = env.do(t, "POST", fmt.Sprintf("/api/v1/orders/%d/cancel", order.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var canceled models.Order
	decodeBody(t, resp, &canceled)
	assert.Equal(t, models.OrderCanceled, canceled.Status)

	var freed models.Cloth
	require.NoError(t, env.db.First(&freed, cloth.ID).Error)
	assert.Equal(t, models.ClothReadyForRent, freed.Status)

	// payments were canceled and refunded in the ledger
	var open int64
	env.db.Model(&models.Payment{}).Where("order_id = ? AND canceled = ?", order.ID, false).Count(&open)
	assert.Zero(t, open)
}

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}
