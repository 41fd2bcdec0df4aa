// Package wordspark serves a minimal WordSpark web app with the login, dashboard and
// story pages the verifier drives. It backs end-to-end tests and cmd/wordspark-stub.
package wordspark

import (
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bobmcallan/wordspark-verify/internal/common"
)

const sessionCookie = "wordspark_session"

// VocabularyList is one entry on the dashboard.
type VocabularyList struct {
	ID    string
	Name  string
	Title string
	Story string
}

// Options shape the app's behaviour.
type Options struct {
	// RequireLogin serves the login page until a session exists.
	RequireLogin bool
	// HideDashboard never renders the "Vocabulary Lists" heading.
	HideDashboard bool
	// LoginDelay reveals the login heading only after the page has loaded.
	LoginDelay time.Duration
	// Email and Password are the accepted credentials.
	Email    string
	Password string
	Lists    []VocabularyList
}

// DefaultLists is the dashboard content used when Options.Lists is empty.
var DefaultLists = []VocabularyList{
	{ID: "animals", Name: "Animals", Title: "The Curious Fox", Story: "A fox found a word it did not know."},
	{ID: "weather", Name: "Weather", Title: "Rainy Day", Story: "Drizzle turned into a downpour."},
}

// Login records one submission of the login form.
type Login struct {
	Email    string
	Password string
	Accepted bool
	At       time.Time
}

// App is an http.Handler serving the stub site.
type App struct {
	opts   Options
	logger *common.Logger
	mux    *http.ServeMux
	pages  *template.Template

	mu       sync.Mutex
	logins   []Login
	sessions map[string]bool
}

// New creates the app. A nil logger discards output.
func New(opts Options, logger *common.Logger) *App {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if opts.Email == "" {
		opts.Email = "test@example.com"
	}
	if opts.Password == "" {
		opts.Password = "password"
	}
	if len(opts.Lists) == 0 {
		opts.Lists = DefaultLists
	}

	a := &App{
		opts:     opts,
		logger:   logger,
		pages:    template.Must(template.New("pages").Parse(pageTemplates)),
		sessions: make(map[string]bool),
	}
	a.mux = a.routes()
	return a
}

func (a *App) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", a.handleHome)
	mux.HandleFunc("POST /login", a.handleLogin)
	mux.HandleFunc("GET /story/{id}", a.handleStory)
	mux.Handle("/api/health", NewHealthHandler(a.logger))
	return mux
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// Logins returns every login submission so far, oldest first.
func (a *App) Logins() []Login {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Login, len(a.logins))
	copy(out, a.logins)
	return out
}

func (a *App) authenticated(r *http.Request) bool {
	if !a.opts.RequireLogin {
		return true
	}
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sessions[c.Value]
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	if !a.authenticated(r) {
		a.render(w, http.StatusOK, "login", loginPage{DelayMs: a.opts.LoginDelay.Milliseconds()})
		return
	}
	a.render(w, http.StatusOK, "dashboard", dashboardPage{
		ShowHeading: !a.opts.HideDashboard,
		Lists:       a.opts.Lists,
	})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	accepted := email == a.opts.Email && password == a.opts.Password

	a.mu.Lock()
	a.logins = append(a.logins, Login{Email: email, Password: password, Accepted: accepted, At: time.Now()})
	a.mu.Unlock()

	if !accepted {
		a.logger.Warn().Str("email", email).Msg("login rejected")
		a.render(w, http.StatusUnauthorized, "login", loginPage{Error: "Invalid email or password"})
		return
	}

	id := uuid.NewString()
	a.mu.Lock()
	a.sessions[id] = true
	a.mu.Unlock()

	a.logger.Info().Str("email", email).Msg("login accepted")
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: id, Path: "/", HttpOnly: true})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (a *App) handleStory(w http.ResponseWriter, r *http.Request) {
	if !a.authenticated(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	id := r.PathValue("id")
	for _, l := range a.opts.Lists {
		if l.ID == id {
			a.render(w, http.StatusOK, "story", l)
			return
		}
	}
	http.NotFound(w, r)
}

func (a *App) render(w http.ResponseWriter, status int, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := a.pages.ExecuteTemplate(w, name, data); err != nil {
		a.logger.Error().Str("template", name).Err(err).Msg("render failed")
	}
}

type loginPage struct {
	DelayMs int64
	Error   string
}

type dashboardPage struct {
	ShowHeading bool
	Lists       []VocabularyList
}
