package wordspark

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func postLogin(t *testing.T, app *App, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func get(app *App, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestHome_LoginRequired_ServesLoginPage(t *testing.T) {
	app := New(Options{RequireLogin: true}, nil)

	w := get(app, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{
		`<h1 id="brand">WordSpark</h1>`,
		`<label for="email">Email</label>`,
		`<label for="password">Password</label>`,
		`<button type="submit">Sign In</button>`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected login page to contain %s", want)
		}
	}
	if strings.Contains(body, "Vocabulary Lists") {
		t.Error("login page must not show the dashboard heading")
	}
}

func TestHome_NoLogin_ServesDashboard(t *testing.T) {
	app := New(Options{}, nil)

	w := get(app, "/")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "<h2>Vocabulary Lists</h2>") {
		t.Error("expected dashboard heading")
	}
	if n := strings.Count(body, "Play Story"); n != len(DefaultLists) {
		t.Errorf("expected %d Play Story buttons, got %d", len(DefaultLists), n)
	}
	if strings.Contains(body, "WordSpark</h1>") {
		t.Error("dashboard must not show the login heading")
	}
}

func TestHome_HideDashboard_OmitsHeading(t *testing.T) {
	app := New(Options{HideDashboard: true}, nil)

	if strings.Contains(get(app, "/").Body.String(), "Vocabulary Lists") {
		t.Error("expected dashboard heading to be hidden")
	}
}

func TestHome_LoginDelay_HidesHeadingInitially(t *testing.T) {
	app := New(Options{RequireLogin: true, LoginDelay: 300 * time.Millisecond}, nil)

	body := get(app, "/").Body.String()
	if !strings.Contains(body, `style="display:none"`) {
		t.Error("expected login heading hidden on load")
	}
	if !strings.Contains(body, "300") {
		t.Error("expected reveal delay in page script")
	}
}

func TestLogin_ValidCredentials_SetsSessionAndRedirects(t *testing.T) {
	app := New(Options{RequireLogin: true}, nil)

	w := postLogin(t, app, "test@example.com", "password")
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/" {
		t.Errorf("expected redirect to /, got %s", loc)
	}

	cookies := w.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	if cookies[0].Name != sessionCookie {
		t.Errorf("expected %s cookie, got %s", sessionCookie, cookies[0].Name)
	}

	// The session now unlocks the dashboard
	if !strings.Contains(get(app, "/", cookies[0]).Body.String(), "Vocabulary Lists") {
		t.Error("expected dashboard with session cookie")
	}

	logins := app.Logins()
	if len(logins) != 1 {
		t.Fatalf("expected one login, got %d", len(logins))
	}
	if logins[0].Email != "test@example.com" || logins[0].Password != "password" {
		t.Errorf("unexpected credentials %s/%s", logins[0].Email, logins[0].Password)
	}
	if !logins[0].Accepted {
		t.Error("expected login accepted")
	}
}

func TestLogin_InvalidCredentials_Rejected(t *testing.T) {
	app := New(Options{RequireLogin: true}, nil)

	w := postLogin(t, app, "test@example.com", "wrong")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid email or password") {
		t.Error("expected error message")
	}
	if n := len(w.Result().Cookies()); n != 0 {
		t.Errorf("expected no cookies, got %d", n)
	}

	logins := app.Logins()
	if len(logins) != 1 {
		t.Fatalf("expected one login, got %d", len(logins))
	}
	if logins[0].Accepted {
		t.Error("expected login rejected")
	}
}

func TestStory_RendersTitleHeading(t *testing.T) {
	app := New(Options{}, nil)

	w := get(app, "/story/animals")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<h1>Story: The Curious Fox</h1>") {
		t.Error("expected story heading")
	}
}

func TestStory_UnknownID_NotFound(t *testing.T) {
	app := New(Options{}, nil)

	if w := get(app, "/story/missing"); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestStory_RequiresSession(t *testing.T) {
	app := New(Options{RequireLogin: true}, nil)

	if w := get(app, "/story/animals"); w.Code != http.StatusSeeOther {
		t.Errorf("expected 303, got %d", w.Code)
	}
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	handler := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode health body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %s", body["status"])
	}
}

func TestHealthHandler_RejectsNonGET(t *testing.T) {
	handler := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/health", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}
