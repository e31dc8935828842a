package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"petopia-api/controllers"
	"petopia-api/middleware"
	"petopia-api/routes"
	"petopia-api/services"
	"petopia-api/store"
	"petopia-api/utils"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
)

type sink struct {
	sent []utils.Message
}

func (s *sink) Send(_ context.Context, msg utils.Message) error {
	s.sent = append(s.sent, msg)
	return nil
}

type testServer struct {
	t      *testing.T
	router *mux.Router
	store  *store.MemoryStore
	mail   *sink
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	st := store.NewMemoryStore()
	mail := &sink{}
	emails := utils.NewEmailService(mail, "admin@petopia.care", log)
	events := utils.NoopPublisher{}
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	revoker := utils.NewMemoryRevoker()
	timeout := 5 * time.Second

	auth := services.NewAuthService(st, tokens, revoker, services.AuthOptions{
		DefaultAvatar: "https://cdn.petopia.care/default.png",
		IsAdminEmail:  func(email string) bool { return email == "root@petopia.care" },
	}, log)

	router := mux.NewRouter()
	routes.RegisterRoutes(router, routes.Controllers{
		Users:     controllers.NewUserController(auth, log, timeout),
		Carts:     controllers.NewCartController(services.NewCartService(st, log), log, timeout),
		Addresses: controllers.NewAddressController(services.NewAddressService(st, log), log, timeout),
		Orders:    controllers.NewOrderController(services.NewOrderService(st, emails, events, log), log, timeout),
		Admin:     controllers.NewAdminController(services.NewAdminService(st, log), log, timeout),
		Feedback:  controllers.NewFeedbackController(services.NewFeedbackService(st, emails, events, log), "/homepage.html", log, timeout),
	}, middleware.NewAuthenticator(tokens, revoker, log))

	return &testServer{t: t, router: router, store: st, mail: mail}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) signup(username, email string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/register", "", map[string]string{"username": username, "email": email, "password": "pw"})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", "", map[string]string{"email": email, "password": "pw"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(s.t, body.Token)
	return body.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestRegisterAndLoginErrors(t *testing.T) {
	s := newTestServer(t)
	s.signup("alice", "a@x.com")

	rec := s.do(http.MethodPost, "/register", "", map[string]string{"username": "alice", "email": "a@x.com", "password": "pw"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPost, "/register", "", map[string]string{"username": "bob", "email": "b@x.com", "password": strings.Repeat("p", 73)})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", "", map[string]string{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())

	rec = s.do(http.MethodPost, "/login", "", map[string]string{"email": "b@x.com", "password": "pw"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
	bad := httptest.NewRecorder()
	s.router.ServeHTTP(bad, req)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/cart", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/cart", "garbage", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/admin/users", "", nil).Code)
}

func TestProfileAvatarAndLogout(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice", "a@x.com")

	rec := s.do(http.MethodGet, "/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	var profile struct {
		Data struct {
			Username string `json:"username"`
			Avatar   string `json:"avatar"`
		} `json:"data"`
	}
	decodeBody(t, rec, &profile)
	assert.Equal(t, "alice", profile.Data.Username)
	assert.Equal(t, "https://cdn.petopia.care/default.png", profile.Data.Avatar)

	rec = s.do(http.MethodPost, "/update-avatar", token, map[string]string{"avatar": "https://img/me.png"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://img/me.png")

	rec = s.do(http.MethodPost, "/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/profile", token, nil).Code)
}

func TestAliceBuysAspirinOverHTTP(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice", "a@x.com")

	add := map[string]string{"name": "Aspirin", "image": "img.png", "price": "9.99"}
	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/add", token, add).Code)

	var items []struct {
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Quantity int     `json:"quantity"`
	}
	decodeBody(t, s.do(http.MethodGet, "/cart", token, nil), &items)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
	assert.Equal(t, 9.99, items[0].Price)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/add", token, add).Code)
	decodeBody(t, s.do(http.MethodGet, "/cart", token, nil), &items)
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	rec := s.do(http.MethodPost, "/place-order", token, map[string]interface{}{
		"address":       map[string]string{"street": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701", "country": "US"},
		"cart":          items,
		"paymentMethod": "Card",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed struct {
		Success bool `json:"success"`
		Order   struct {
			ID          string  `json:"id"`
			Status      string  `json:"status"`
			TotalAmount float64 `json:"totalAmount"`
			Items       []struct {
				Name     string `json:"name"`
				Quantity int    `json:"quantity"`
			} `json:"items"`
		} `json:"order"`
	}
	decodeBody(t, rec, &placed)
	assert.True(t, placed.Success)
	assert.Equal(t, "Pending", placed.Order.Status)
	assert.Equal(t, 19.98, placed.Order.TotalAmount)
	require.Len(t, placed.Order.Items, 1)
	assert.Equal(t, "Aspirin", placed.Order.Items[0].Name)
	assert.Equal(t, 2, placed.Order.Items[0].Quantity)

	assert.JSONEq(t, `[]`, s.do(http.MethodGet, "/cart", token, nil).Body.String())

	rec = s.do(http.MethodPost, "/orders/"+placed.Order.ID+"/confirm", token, map[string]string{"transactionId": "txn-42"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"Confirmed"`)

	rec = s.do(http.MethodPost, "/orders/"+placed.Order.ID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPlaceOrderWithoutItems(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice", "a@x.com")

	rec := s.do(http.MethodPost, "/place-order", token, map[string]interface{}{"cart": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	n, err := s.store.CountOrders(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddressesCheckoutAndConfirmation(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice", "a@x.com")

	rec := s.do(http.MethodGet, "/confirmation", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/addresses", token, map[string]string{"street": "1 Main St"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/addresses", token, map[string]string{
		"label": "home", "street": "1 Main St", "city": "Springfield", "state": "IL", "zip": "62701", "country": "US",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var book struct {
		Addresses []struct {
			ID   string `json:"_id"`
			City string `json:"city"`
		} `json:"addresses"`
	}
	decodeBody(t, rec, &book)
	require.Len(t, book.Addresses, 1)
	id := book.Addresses[0].ID

	rec = s.do(http.MethodPut, "/addresses/"+id, token, map[string]string{"city": "Shelbyville"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shelbyville")

	rec = s.do(http.MethodPost, "/checkout", token, map[string]string{"addressId": id})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Shelbyville")

	rec = s.do(http.MethodPost, "/checkout", token, map[string]string{"addressId": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/add", token, map[string]interface{}{"name": "Kibble", "price": 20}).Code)
	rec = s.do(http.MethodGet, "/confirmation?paymentMethod=Card", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var conf struct {
		Address struct {
			City string `json:"city"`
		} `json:"address"`
		Items         []interface{} `json:"items"`
		PaymentMethod string        `json:"paymentMethod"`
	}
	decodeBody(t, rec, &conf)
	assert.Equal(t, "Shelbyville", conf.Address.City)
	assert.Len(t, conf.Items, 1)
	assert.Equal(t, "Card", conf.PaymentMethod)

	rec = s.do(http.MethodDelete, "/addresses/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Address deleted successfully","addresses":[]}`, rec.Body.String())
}

func TestRemoveFromCart(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("alice", "a@x.com")

	assert.Equal(t, http.StatusNotFound, s.do(http.MethodPost, "/cart/remove", token, map[string]string{"name": "Aspirin"}).Code)

	require.Equal(t, http.StatusOK, s.do(http.MethodPost, "/cart/add", token, map[string]interface{}{"name": "Aspirin", "price": 9.99}).Code)
	rec := s.do(http.MethodPost, "/cart/remove", token, map[string]string{"name": "Bandage"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Aspirin")

	rec = s.do(http.MethodPost, "/cart/remove", token, map[string]string{"name": "Aspirin"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Item removed from cart","cart":[]}`, rec.Body.String())
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t)
	userToken := s.signup("alice", "a@x.com")
	adminToken := s.signup("root", "root@petopia.care")

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/admin/users", userToken, nil).Code)

	rec := s.do(http.MethodGet, "/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	var users []struct {
		ID       string `json:"_id"`
		Username string `json:"username"`
	}
	decodeBody(t, rec, &users)
	require.Len(t, users, 2)

	items := []map[string]interface{}{{"name": "Kibble", "price": 20, "quantity": 1}}
	require.Equal(t, http.StatusCreated, s.do(http.MethodPost, "/place-order", userToken, map[string]interface{}{"cart": items}).Code)

	rec = s.do(http.MethodGet, "/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalUsers":2,"totalOrders":1}`, rec.Body.String())

	rec = s.do(http.MethodGet, "/admin/user-orders", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var counts []struct {
		Username   string `json:"username"`
		OrderCount int    `json:"orderCount"`
	}
	decodeBody(t, rec, &counts)
	require.Len(t, counts, 2)
	assert.Equal(t, "alice", counts[0].Username)
	assert.Equal(t, 1, counts[0].OrderCount)

	rec = s.do(http.MethodGet, "/admin/user-orders/export", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, utils.XLSXContentType, rec.Header().Get("Content-Type"))
	wb, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Len(t, wb.Sheets[0].Rows, 3)

	var aliceID string
	for _, u := range users {
		if u.Username == "alice" {
			aliceID = u.ID
		}
	}
	require.NotEmpty(t, aliceID)
	assert.Equal(t, http.StatusOK, s.do(http.MethodDelete, "/admin/users/"+aliceID, adminToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodDelete, "/admin/users/"+aliceID, adminToken, nil).Code)

	// alice's token is still signed, but her account is gone
	rec = s.do(http.MethodPost, "/cart/add", userToken, map[string]interface{}{"name": "Aspirin", "price": 9.99})
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	rec = s.do(http.MethodGet, "/cart", userToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSubmitFeedbackJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/submit-feedback", "", map[string]interface{}{
		"name": "Bob", "email": "bob@x.com", "feedback": "great shop", "rating": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, s.mail.sent, 2)
	assert.Len(t, s.store.Feedback(), 1)

	rec = s.do(http.MethodPost, "/submit-feedback", "", map[string]interface{}{
		"name": "Bob", "email": "bob@x.com", "feedback": "great shop", "rating": 9,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitFeedbackFormRedirects(t *testing.T) {
	s := newTestServer(t)

	form := url.Values{"name": {"Bob"}, "email": {"bob@x.com"}, "feedback": {"slow"}, "rating": {"2"}}
	req := httptest.NewRequest(http.MethodPost, "/submit-feedback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/homepage.html", rec.Header().Get("Location"))
	require.Len(t, s.store.Feedback(), 1)
	assert.Equal(t, 2, s.store.Feedback()[0].Rating)

	form.Set("rating", "two")
	req = httptest.NewRequest(http.MethodPost, "/submit-feedback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestSubmitFeedbackMultipartForm(t *testing.T) {
	s := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"name": "Bob", "email": "bob@x.com", "feedback": "slow", "rating": "4"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/submit-feedback", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	require.Len(t, s.store.Feedback(), 1)
	assert.Equal(t, "Bob", s.store.Feedback()[0].Name)
	assert.Equal(t, 4, s.store.Feedback()[0].Rating)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
