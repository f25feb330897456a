package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rijonshahariar/tools-manufacturer-website-server/internal/store"
)

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func putJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("put %s: %v", url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestIndexLiveness(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "running") {
		t.Fatalf("unexpected liveness body: %q", body)
	}

	notFound, err := http.Get(ts.URL + "/no-such-route")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	notFound.Body.Close()
	if notFound.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown path, got %d", notFound.StatusCode)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	ts, _, _, tokens, _ := newTestServer(t)
	identity := map[string]any{"email": "buyer@example.com", "name": "Buyer"}

	resp := postJSON(t, ts.URL+"/login", identity)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		AccessToken string `json:"accessToken"`
	}
	decodeInto(t, resp, &body)
	if body.AccessToken == "" {
		t.Fatalf("expected an access token")
	}

	claims, err := tokens.Verify(body.AccessToken)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims["email"] != "buyer@example.com" || claims["name"] != "Buyer" {
		t.Fatalf("claims do not match posted payload: %v", claims)
	}
}

func TestPartsRoundTrip(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/parts", map[string]any{"name": "bench vise", "price": 45.5, "minOrder": 10})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ins store.InsertResult
	decodeInto(t, resp, &ins)
	if !ins.Acknowledged || ins.InsertedID == "" {
		t.Fatalf("unexpected insert result: %+v", ins)
	}

	got, err := http.Get(ts.URL + "/partsById?id=" + ins.InsertedID)
	if err != nil {
		t.Fatalf("get part: %v", err)
	}
	var tool store.Tool
	decodeInto(t, got, &tool)
	if tool.Name != "bench vise" || tool.Price != 45.5 || tool.MinOrder != 10 {
		t.Fatalf("round trip mismatch: %+v", tool)
	}
	if tool.ID.Hex() != ins.InsertedID {
		t.Fatalf("id mismatch: %s vs %s", tool.ID.Hex(), ins.InsertedID)
	}
}

func TestPartsNewestFirstToolsNative(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)
	for _, name := range []string{"first", "second", "third"} {
		resp := postJSON(t, ts.URL+"/parts", map[string]any{"name": name, "price": 1})
		resp.Body.Close()
	}

	resp, err := http.Get(ts.URL + "/parts")
	if err != nil {
		t.Fatalf("get parts: %v", err)
	}
	var newest []store.Tool
	decodeInto(t, resp, &newest)
	if len(newest) != 3 || newest[0].Name != "third" || newest[2].Name != "first" {
		t.Fatalf("expected newest-first, got %+v", newest)
	}

	resp, err = http.Get(ts.URL + "/tools")
	if err != nil {
		t.Fatalf("get tools: %v", err)
	}
	var native []store.Tool
	decodeInto(t, resp, &native)
	if len(native) != 3 || native[0].Name != "first" {
		t.Fatalf("expected native order, got %+v", native)
	}
}

func TestReviewsNewestFirst(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)
	for _, name := range []string{"alice", "bob"} {
		resp := postJSON(t, ts.URL+"/reviews", map[string]any{"name": name, "rating": 5, "review": "great"})
		resp.Body.Close()
	}
	resp, err := http.Get(ts.URL + "/reviews")
	if err != nil {
		t.Fatalf("get reviews: %v", err)
	}
	var reviews []store.Review
	decodeInto(t, resp, &reviews)
	if len(reviews) != 2 || reviews[0].Name != "bob" {
		t.Fatalf("expected newest-first reviews, got %+v", reviews)
	}
}

func TestToolByIDAbsentReturnsNull(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)
	unknown := primitive.NewObjectID().Hex()

	for _, url := range []string{
		ts.URL + "/tools/" + unknown,
		ts.URL + "/partsById?id=" + unknown,
	} {
		resp, err := http.Get(url)
		if err != nil {
			t.Fatalf("get %s: %v", url, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", url, resp.StatusCode)
		}
		if strings.TrimSpace(string(body)) != "null" {
			t.Fatalf("%s: expected null body, got %q", url, body)
		}
	}
}

func TestMalformedIDReportsServerError(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/partsById?id=not-hex")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	if msg := decodeMessage(t, resp); msg != "internal server error" {
		t.Fatalf("unexpected message: %q", msg)
	}
}

func TestUsersUpsertReturnsResultAndToken(t *testing.T) {
	ts, _, _, tokens, _ := newTestServer(t)

	resp := putJSON(t, ts.URL+"/users?email=new@example.com", map[string]any{"name": "New User"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Result      store.UpdateResult `json:"result"`
		AccessToken string             `json:"accessToken"`
	}
	decodeInto(t, resp, &body)
	if body.Result.UpsertedCount != 1 {
		t.Fatalf("expected upsert, got %+v", body.Result)
	}
	claims, err := tokens.Verify(body.AccessToken)
	if err != nil {
		t.Fatalf("verify upsert token: %v", err)
	}
	if claims["email"] != "new@example.com" {
		t.Fatalf("token email mismatch: %v", claims)
	}
}

func TestUsersByIDIdempotentAdminPromotion(t *testing.T) {
	ts, _, mem, _, _ := newTestServer(t)

	resp := putJSON(t, ts.URL+"/users?email=boss@example.com", map[string]any{})
	var created struct {
		Result store.UpdateResult `json:"result"`
	}
	decodeInto(t, resp, &created)
	id := *created.Result.UpsertedID

	for i := 0; i < 2; i++ {
		resp := putJSON(t, ts.URL+"/usersById?id="+id, map[string]any{})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("call %d: expected 200, got %d", i, resp.StatusCode)
		}
		var res store.UpdateResult
		decodeInto(t, resp, &res)
		if !res.Acknowledged || res.MatchedCount != 1 {
			t.Fatalf("call %d: expected successful update, got %+v", i, res)
		}
	}

	user, err := mem.GetUserByEmail(context.Background(), "boss@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if user == nil || user.Role != store.RoleAdmin {
		t.Fatalf("expected admin role, got %+v", user)
	}
}

func TestUserByEmailPatchAndGet(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)

	putJSON(t, ts.URL+"/users?email=p@example.com", map[string]any{"name": "P"}).Body.Close()

	resp := putJSON(t, ts.URL+"/usersByEmail?email=p@example.com", map[string]any{"location": "Dhaka"})
	var res store.UpdateResult
	decodeInto(t, resp, &res)
	if res.MatchedCount != 1 {
		t.Fatalf("expected patch to match, got %+v", res)
	}

	got, err := http.Get(ts.URL + "/usersByEmail?email=p@example.com")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	var user store.User
	decodeInto(t, got, &user)
	if user.Name != "P" || user.Location != "Dhaka" {
		t.Fatalf("unexpected user: %+v", user)
	}

	absent, err := http.Get(ts.URL + "/usersByEmail?email=ghost@example.com")
	if err != nil {
		t.Fatalf("get absent user: %v", err)
	}
	body, _ := io.ReadAll(absent.Body)
	absent.Body.Close()
	if strings.TrimSpace(string(body)) != "null" {
		t.Fatalf("expected null for absent user, got %q", body)
	}
}

func TestPurchaseLifecycle(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/purchase", map[string]any{
		"email": "a@example.com", "toolName": "saw", "price": 30, "quantity": 3,
	})
	var ins store.InsertResult
	decodeInto(t, resp, &ins)

	all, err := http.Get(ts.URL + "/purchase")
	if err != nil {
		t.Fatalf("list purchases: %v", err)
	}
	var purchases []store.Purchase
	decodeInto(t, all, &purchases)
	if len(purchases) != 1 || purchases[0].ToolName != "saw" {
		t.Fatalf("unexpected purchases: %+v", purchases)
	}

	upd := putJSON(t, ts.URL+"/purchaseById/"+ins.InsertedID, map[string]any{"status": "shipped"})
	var updRes store.UpdateResult
	decodeInto(t, upd, &updRes)
	if updRes.MatchedCount != 1 {
		t.Fatalf("expected update match, got %+v", updRes)
	}

	got, err := http.Get(ts.URL + "/purchaseById/" + ins.InsertedID)
	if err != nil {
		t.Fatalf("get purchase: %v", err)
	}
	var purchase store.Purchase
	decodeInto(t, got, &purchase)
	if purchase.Status != "shipped" {
		t.Fatalf("patch not applied: %+v", purchase)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/purchaseById/"+ins.InsertedID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete purchase: %v", err)
	}
	var delRes store.DeleteResult
	decodeInto(t, delResp, &delRes)
	if delRes.DeletedCount != 1 {
		t.Fatalf("expected one deletion, got %+v", delRes)
	}
}

func TestCreatePaymentIntentBoundary(t *testing.T) {
	ts, _, _, _, fake := newTestServer(t)

	resp := postJSON(t, ts.URL+"/create-payment-intent", map[string]any{"price": 9999.99})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var ok struct {
		ClientSecret string `json:"clientSecret"`
		Message      string `json:"message"`
	}
	decodeInto(t, resp, &ok)
	if ok.ClientSecret != "pi_test_secret" || ok.Message != "" {
		t.Fatalf("unexpected intent response: %+v", ok)
	}
	if got := atomic.LoadInt32(&fake.calls); got != 1 {
		t.Fatalf("expected one processor call, got %d", got)
	}

	resp = postJSON(t, ts.URL+"/create-payment-intent", map[string]any{"price": 10000})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for limit excess, got %d", resp.StatusCode)
	}
	var over struct {
		ClientSecret string `json:"clientSecret"`
		Message      string `json:"message"`
	}
	decodeInto(t, resp, &over)
	if over.Message != "Amount limit excess" || over.ClientSecret != "" {
		t.Fatalf("unexpected limit response: %+v", over)
	}
	if got := atomic.LoadInt32(&fake.calls); got != 1 {
		t.Fatalf("processor must not be called over the limit, got %d calls", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _, _, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/login")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
