//go:build integration

package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/javajoker/storefront-backend/internal/config"
	"github.com/javajoker/storefront-backend/internal/metrics"
	"github.com/javajoker/storefront-backend/internal/models"
	"github.com/javajoker/storefront-backend/internal/router"
)

type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	server *router.Server
}

func (s *APITestSuite) SetupSuite() {
	if testing.Short() {
		s.T().Skip("skipping integration test")
	}

	gin.SetMode(gin.TestMode)
	s.db = setupDB(s.T())

	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		Session:     config.SessionConfig{SecretKey: "api-test-secret", TTL: 1, CookieName: "sid"},
		RateLimit:   config.RateLimitConfig{GeneralPerSecond: 1000, GeneralBurst: 1000, AuthPerMinute: 6000, AuthBurst: 100},
		AWS:         config.AWSConfig{PublicBaseURL: "http://localhost:9090", LocalUploadDir: s.T().TempDir()},
	}

	server, err := router.Initialize(s.db, cfg, metrics.New())
	s.Require().NoError(err)
	s.server = server
}

func (s *APITestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Stop()
	}
}

func (s *APITestSuite) SetupTest() {
	resetDB(s.T(), s.db)
}

func (s *APITestSuite) request(method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	s.server.Engine.ServeHTTP(w, req)
	return w
}

func (s *APITestSuite) signup(username string) (uint, *http.Cookie) {
	w := s.request(http.MethodPost, "/api/signup", map[string]interface{}{
		"username": username,
		"password": "correct horse",
		"name":     "Ada Lovelace",
		"email":    username + "@example.com",
	}, nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var body struct {
		Customer map[string]interface{} `json:"customer"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Equal(models.RedactedPassword, body.Customer["password"])

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "sid" {
			s.Equal(http.SameSiteNoneMode, cookie.SameSite)
			s.True(cookie.HttpOnly)
			return uint(body.Customer["id"].(float64)), cookie
		}
	}
	s.FailNow("session cookie not set")
	return 0, nil
}

func (s *APITestSuite) TestSignupConflicts() {
	s.signup("ada")

	w := s.request(http.MethodPost, "/api/signup", map[string]interface{}{
		"username": "ada", "password": "x", "name": "Other", "email": "ada@example.com",
	}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"error":{"status":400,"info":"That username is taken."}}`, w.Body.String())

	w = s.request(http.MethodPost, "/api/signup", map[string]interface{}{
		"username": "grace", "password": "x", "name": "Grace", "email": "ada@example.com",
	}, nil)
	s.JSONEq(`{"error":{"status":400,"info":"Email already in use."}}`, w.Body.String())

	w = s.request(http.MethodPost, "/api/signup", map[string]interface{}{
		"username": "grace", "password": "x", "name": "Grace",
	}, nil)
	s.JSONEq(`{"error":{"status":400,"info":"Request body is missing required field(s)."}}`, w.Body.String())
}

func (s *APITestSuite) TestLoginErrors() {
	s.signup("ada")

	w := s.request(http.MethodPost, "/api/login", map[string]interface{}{"username": "nobody", "password": "x"}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":{"status":401,"info":"Invalid username."}}`, w.Body.String())

	w = s.request(http.MethodPost, "/api/login", map[string]interface{}{"username": "ada", "password": "x"}, nil)
	s.JSONEq(`{"error":{"status":401,"info":"Invalid password."}}`, w.Body.String())

	w = s.request(http.MethodPost, "/api/login", map[string]interface{}{"username": "ada", "password": "correct horse"}, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestOwnershipAndLogout() {
	id, cookie := s.signup("ada")
	otherID, _ := s.signup("grace")

	s.Equal(http.StatusOK, s.request(http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil, cookie).Code)
	s.Equal(http.StatusForbidden, s.request(http.MethodGet, fmt.Sprintf("/api/customers/%d", otherID), nil, cookie).Code)
	s.Equal(http.StatusOK, s.request(http.MethodGet, fmt.Sprintf("/api/customers/%d/reviews", otherID), nil, nil).Code)

	w := s.request(http.MethodPost, "/api/logout", nil, cookie)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"msg":"ada is now logged out."}`, w.Body.String())

	// The token is still well formed but its session is gone
	w = s.request(http.MethodGet, fmt.Sprintf("/api/customers/%d", id), nil, cookie)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APITestSuite) TestPlaceOrder() {
	id, cookie := s.signup("ada")
	product := createProduct(s.T(), s.db, "Kettle", "Kitchen", "Northwind", 3)

	address := map[string]interface{}{"addressLine1": " 1 High Street ", "city": "Leeds", "postcode": "LS1 1AA", "country": "UK"}
	order := map[string]interface{}{
		"billingAddress":  address,
		"shippingAddress": address,
		"paymentMethod":   "paypal",
		"total":           "19.98",
		"item":            map[string]interface{}{"productId": product.ID, "quantity": 2},
	}

	path := fmt.Sprintf("/api/customers/%d/orders", id)
	w := s.request(http.MethodPost, path, order, cookie)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var placed models.Order
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &placed))
	s.Equal(models.OrderStatusCompleted, placed.Status)
	s.Equal("19.98", placed.Total.StringFixed(2))
	s.Require().NotNil(placed.BillingAddress)
	s.Equal("1 High Street", placed.BillingAddress.AddressLine1)
	s.Equal(placed.BillingAddressID, placed.ShippingAddressID)

	// Only one unit left
	w = s.request(http.MethodPost, path, order, cookie)
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"error":{"status":400,"info":"Insufficient stock."}}`, w.Body.String())

	w = s.request(http.MethodGet, fmt.Sprintf("/api/customers/%d/orders/products/%d", id, product.ID), nil, cookie)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APITestSuite) TestProductQueryErrors() {
	w := s.request(http.MethodGet, "/api/products?sortBy=prise", nil, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq("{\"msg\":\"Unknown argument `prise`. Did you mean `price`?\"}", w.Body.String())

	w = s.request(http.MethodGet, "/api/products?page=0", nil, nil)
	s.JSONEq("{\"msg\":\"Invalid query. Argument `skip` is missing.\"}", w.Body.String())

	w = s.request(http.MethodGet, "/api/products/999", nil, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"msg":"Not found."}`, w.Body.String())
}

func (s *APITestSuite) TestSSORejectsUnverifiedAssertion() {
	s.signup("ada")

	w := s.request(http.MethodPost, "/api/sso", map[string]interface{}{
		"provider": "google", "idToken": "eyJhbGciOiJub25lIn0.eyJlbWFpbCI6ImFkYUBleGFtcGxlLmNvbSJ9.",
	}, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"error":{"status":401,"info":"Invalid identity token."}}`, w.Body.String())
	s.Empty(w.Result().Cookies())

	w = s.request(http.MethodPost, "/api/sso", map[string]interface{}{
		"provider": "google", "authId": "1234", "email": "ada@example.com",
	}, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APITestSuite) TestAvatarServedFromLocalDisk() {
	id, cookie := s.signup("ada")
	image := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 24)...)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("avatar", "me.png")
	s.Require().NoError(err)
	_, err = part.Write(image)
	s.Require().NoError(err)
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/customers/%d/avatar", id), &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	s.server.Engine.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var updated struct {
		Customer models.Customer `json:"customer"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &updated))
	s.Require().NotNil(updated.Customer.Avatar)
	avatarURL, err := url.Parse(*updated.Customer.Avatar)
	s.Require().NoError(err)

	w = s.request(http.MethodGet, avatarURL.Path, nil, nil)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(image, w.Body.Bytes())
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
